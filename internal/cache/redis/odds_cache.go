package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// OddsCache implements domain.OddsCache using Redis hashes. Each condition's
// current odds live in a hash at key "odds:{conditionEntityID}" with one
// field per outcome entity id holding the raw fixed-point value, plus a
// "{id}:dec" field with the human-readable mirror.
type OddsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOddsCache creates an OddsCache backed by the given Client. Entries
// expire after ttl; zero means no expiry.
func NewOddsCache(c *Client, ttl time.Duration) *OddsCache {
	return &OddsCache{rdb: c.Underlying(), ttl: ttl}
}

var _ domain.OddsCache = (*OddsCache)(nil)

func oddsKey(conditionEntityID string) string {
	return "odds:" + conditionEntityID
}

// SetOutcomeOdds mirrors one outcome's current odds.
func (oc *OddsCache) SetOutcomeOdds(ctx context.Context, o *domain.Outcome) error {
	if o.RawCurrentOdds == nil {
		return nil
	}
	key := oddsKey(o.ConditionID)
	fields := map[string]interface{}{
		o.ID:          o.RawCurrentOdds.String(),
		o.ID + ":dec": o.CurrentOdds.String(),
	}

	pipe := oc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if oc.ttl > 0 {
		pipe.Expire(ctx, key, oc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set odds %s: %w", o.ID, err)
	}
	return nil
}

// GetOutcomeOdds returns one outcome's mirrored raw odds as a decimal string.
// It returns domain.ErrNotFound when the outcome is not cached.
func (oc *OddsCache) GetOutcomeOdds(ctx context.Context, conditionEntityID, outcomeEntityID string) (string, error) {
	v, err := oc.rdb.HGet(ctx, oddsKey(conditionEntityID), outcomeEntityID).Result()
	if err == redis.Nil {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis: get odds %s: %w", outcomeEntityID, err)
	}
	return v, nil
}

// InvalidateCondition drops every cached odds entry of one condition. Called
// when the condition reaches a terminal state.
func (oc *OddsCache) InvalidateCondition(ctx context.Context, conditionEntityID string) error {
	if err := oc.rdb.Del(ctx, oddsKey(conditionEntityID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate odds %s: %w", conditionEntityID, err)
	}
	return nil
}
