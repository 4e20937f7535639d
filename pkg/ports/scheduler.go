package ports

import (
	"time"

	"github.com/aretw0/mediabridge/pkg/domain"
)

// StopFunc disarms a scheduled callback. It is safe to call more than once.
type StopFunc func()

// Scheduler calls fn every interval on the host's interactive loop.
// Callbacks never overlap with each other or with other loop work.
type Scheduler interface {
	Every(interval time.Duration, fn func()) StopFunc
}

// Reporter surfaces outcomes to the user.
type Reporter interface {
	Report(msg domain.Message)
	// RequestRedraw asks the host to refresh any status display.
	RequestRedraw()
}
