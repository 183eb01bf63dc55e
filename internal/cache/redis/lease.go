package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// releaseLua deletes a lease key only if its value matches the caller's
// unique token, so one holder cannot release another holder's lease.
const releaseLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// Lease guards single-writer indexing: entity derivation is strictly
// sequential, so only one indexer instance per chain may apply events. It is
// implemented with SETNX plus a TTL and a Lua-based conditional release.
type Lease struct {
	rdb       *redis.Client
	releaseSc *redis.Script
}

// NewLease creates a Lease manager backed by the given Client.
func NewLease(c *Client) *Lease {
	return &Lease{
		rdb:       c.Underlying(),
		releaseSc: redis.NewScript(releaseLua),
	}
}

func leaseKey(chainName string) string {
	return "lease:indexer:" + chainName
}

// Acquire attempts to take the indexer lease for one chain. On success it
// returns a release function, safe to call more than once, and a keepalive
// function that extends the TTL and should be called periodically while
// indexing.
//
// It returns domain.ErrLeaseHeld when another instance holds the lease.
func (l *Lease) Acquire(ctx context.Context, chainName string, ttl time.Duration) (release func(), keepalive func(context.Context) error, err error) {
	token := uuid.New().String()
	key := leaseKey(chainName)

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("redis: acquire lease %s: %w", chainName, err)
	}
	if !ok {
		return nil, nil, domain.ErrLeaseHeld
	}

	released := false
	release = func() {
		if released {
			return
		}
		released = true

		// Background context so release succeeds even if the caller's
		// context is already cancelled.
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = l.releaseSc.Run(relCtx, l.rdb, []string{key}, token).Err()
	}

	keepalive = func(ctx context.Context) error {
		ok, err := l.rdb.Expire(ctx, key, ttl).Result()
		if err != nil {
			return fmt.Errorf("redis: extend lease %s: %w", chainName, err)
		}
		if !ok {
			return domain.ErrLeaseHeld
		}
		return nil
	}

	return release, keepalive, nil
}
