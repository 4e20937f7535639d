package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// releaseScript deletes the claim only if it still carries our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Claimer implements ports.RunClaimer using Redis SET NX PX.
type Claimer struct {
	client *backend.Client
	prefix string
}

// NewClaimer creates a claimer. Use the project's prefix so claims are scoped
// to one timeline.
func NewClaimer(client *backend.Client, prefix string) *Claimer {
	return &Claimer{
		client: client,
		prefix: prefix,
	}
}

// Claim takes the controller for one run. It never waits: a controller held
// by another host fails with domain.ErrRunActive.
func (c *Claimer) Claim(ctx context.Context, controllerID string, ttl time.Duration) (ports.UnlockFunc, error) {
	key := c.prefix + "claim:" + controllerID
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring claim: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunActive, controllerID)
	}

	return func(ctx context.Context) error {
		return c.client.Eval(ctx, releaseScript, []string{key}, token).Err()
	}, nil
}
