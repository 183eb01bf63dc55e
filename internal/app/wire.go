package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"

	s3blob "github.com/alanyoungcy/betcore/internal/blob/s3"
	"github.com/alanyoungcy/betcore/internal/cache/redis"
	"github.com/alanyoungcy/betcore/internal/chain"
	"github.com/alanyoungcy/betcore/internal/config"
	"github.com/alanyoungcy/betcore/internal/domain"
	"github.com/alanyoungcy/betcore/internal/engine"
	"github.com/alanyoungcy/betcore/internal/metadata"
	"github.com/alanyoungcy/betcore/internal/metrics"
	"github.com/alanyoungcy/betcore/internal/store/postgres"
)

// Dependencies bundles everything the operating modes need. Wire constructs
// it; the returned cleanup function tears it down.
type Dependencies struct {
	PG    *postgres.Client
	Store *postgres.Store

	Redis     *redis.Client
	OddsCache *redis.OddsCache
	Lease     *redis.Lease

	Chain   *chain.Client
	Readers engine.Readers

	S3         *s3blob.Client
	BlobWriter *s3blob.Writer
	BlobReader *s3blob.Reader

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// Wire constructs the concrete dependencies for the configured mode. Index
// mode gets the full stack; dryrun only gets what replay needs (chain
// adapters when an RPC endpoint is configured, S3 when enabled).
func Wire(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	indexing := cfg.Mode == "index"

	if indexing {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,

			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime.Duration,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.Migrate {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.PG = pgClient
		deps.Store = postgres.NewStore(pgClient.Pool())
	}

	var metaCache metadata.Cache
	if indexing && cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Redis = redisClient
		deps.OddsCache = redis.NewOddsCache(redisClient, cfg.Redis.OddsTTL.Duration)
		deps.Lease = redis.NewLease(redisClient)
		metaCache = redis.NewMetadataCache(redisClient, cfg.Redis.MetadataTTL.Duration)
	}

	if cfg.Chain.RPCURL != "" {
		chainClient, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.Timeout.Duration)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: chain: %w", err)
		}
		closers = append(closers, chainClient.Close)

		deps.Chain = chainClient
		deps.Readers = engine.Readers{
			Condition: chain.NewConditionReader(chainClient),
			Token:     chain.NewTokenReader(chainClient, log),
			Payout:    chain.NewPayoutCalculator(chainClient, log),
		}
	} else {
		deps.Readers = engine.Readers{
			Condition: offlineConditionReader{},
			Token:     offlineTokenReader{},
			Payout:    offlinePayoutCalculator{},
		}
	}

	deps.Readers.Metadata = metadata.NewFetcher(metadata.Config{
		GatewayURL:        cfg.Metadata.GatewayURL,
		RequestTimeout:    cfg.Metadata.RequestTimeout.Duration,
		RequestsPerSecond: cfg.Metadata.RequestsPerSecond,
		Burst:             cfg.Metadata.Burst,
		MaxRetries:        cfg.Metadata.MaxRetries,
	}, metaCache, log)

	if deps.OddsCache != nil {
		deps.Readers.OddsCache = deps.OddsCache
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         true,
			ForcePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.S3 = s3Client
		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
	}

	if cfg.Metrics.Enabled {
		deps.Registry = prometheus.NewRegistry()
		deps.Metrics = metrics.New(deps.Registry)
	}

	return deps, cleanup, nil
}

// Offline readers cover runs without an RPC endpoint. Token and payout
// degrade to their documented defaults; condition reads fail, which makes
// the handler abandon that event.

type offlineConditionReader struct{}

func (offlineConditionReader) GetCondition(_ context.Context, coreAddress string, conditionID *big.Int) (*domain.ConditionState, error) {
	return nil, fmt.Errorf("app: no rpc endpoint for condition %s on %s", conditionID, coreAddress)
}

type offlineTokenReader struct{}

func (offlineTokenReader) Decimals(context.Context, string) int   { return 18 }
func (offlineTokenReader) Symbol(context.Context, string) string  { return "" }
func (offlineTokenReader) BalanceOf(context.Context, string, string) *big.Int {
	return new(big.Int)
}

type offlinePayoutCalculator struct{}

func (offlinePayoutCalculator) CalcPayout(context.Context, string, *big.Int) (*big.Int, bool) {
	return nil, false
}
