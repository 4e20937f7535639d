package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a claim.
type UnlockFunc func(ctx context.Context) error

// RunClaimer coordinates controller ownership across processes sharing one
// project, so a controller runs in at most one of them at a time.
type RunClaimer interface {
	// Claim takes the controller without blocking. It returns
	// domain.ErrRunActive when another holder owns it. The claim expires
	// after ttl unless released first.
	Claim(ctx context.Context, controllerID string, ttl time.Duration) (UnlockFunc, error)
}
