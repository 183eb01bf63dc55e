package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/betcore/internal/domain"
)

// MetadataCache memoizes resolved game descriptors so a gateway outage does
// not stall reindexing of already-seen games. Descriptors are immutable per
// content hash, which makes them safe to cache for a long TTL.
type MetadataCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMetadataCache creates a MetadataCache backed by the given Client.
func NewMetadataCache(c *Client, ttl time.Duration) *MetadataCache {
	return &MetadataCache{rdb: c.Underlying(), ttl: ttl}
}

func metadataKey(hash string) string {
	return "gamemeta:" + hash
}

// cachedMetadata is the JSON shape stored in Redis. Big integers travel as
// decimal strings.
type cachedMetadata struct {
	SportID      string                           `json:"sport_id"`
	CountryName  string                           `json:"country"`
	LeagueName   string                           `json:"league"`
	Provider     string                           `json:"provider,omitempty"`
	GameID       string                           `json:"game_id,omitempty"`
	Participants []domain.GameMetadataParticipant `json:"participants"`
}

// Get returns the cached descriptor for a content hash, or domain.ErrNotFound.
func (mc *MetadataCache) Get(ctx context.Context, hash string) (*domain.GameMetadata, error) {
	data, err := mc.rdb.Get(ctx, metadataKey(hash)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get metadata %s: %w", hash, err)
	}

	var c cachedMetadata
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("redis: decode metadata %s: %w", hash, err)
	}

	meta := &domain.GameMetadata{
		CountryName:  c.CountryName,
		LeagueName:   c.LeagueName,
		Participants: c.Participants,
	}
	if meta.SportID, err = parseBigField(c.SportID); err != nil {
		return nil, fmt.Errorf("redis: decode metadata %s: %w", hash, err)
	}
	if meta.Provider, err = parseBigField(c.Provider); err != nil {
		return nil, fmt.Errorf("redis: decode metadata %s: %w", hash, err)
	}
	if meta.GameID, err = parseBigField(c.GameID); err != nil {
		return nil, fmt.Errorf("redis: decode metadata %s: %w", hash, err)
	}
	return meta, nil
}

// Set stores one resolved descriptor.
func (mc *MetadataCache) Set(ctx context.Context, hash string, meta *domain.GameMetadata) error {
	c := cachedMetadata{
		CountryName:  meta.CountryName,
		LeagueName:   meta.LeagueName,
		Participants: meta.Participants,
	}
	if meta.SportID != nil {
		c.SportID = meta.SportID.String()
	}
	if meta.Provider != nil {
		c.Provider = meta.Provider.String()
	}
	if meta.GameID != nil {
		c.GameID = meta.GameID.String()
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("redis: encode metadata %s: %w", hash, err)
	}
	if err := mc.rdb.Set(ctx, metadataKey(hash), data, mc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set metadata %s: %w", hash, err)
	}
	return nil
}

func parseBigField(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("bad numeric %q", s)
	}
	return v, nil
}
