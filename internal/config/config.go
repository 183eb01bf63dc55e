// Package config defines the top-level configuration for the indexer and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BETCORE_* environment variables.
type Config struct {
	Chain    ChainConfig    `toml:"chain"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Metadata MetadataConfig `toml:"metadata"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Metrics  MetricsConfig  `toml:"metrics"`

	Pools    []PoolConfig           `toml:"pools"`
	Freebets []FreebetConfig        `toml:"freebets"`
	Sports   map[string]SportConfig `toml:"sports"`

	// Input is the JSONL event stream to consume. Empty means stdin. In
	// dryrun mode with S3 enabled the archive under s3.prefix is replayed
	// instead.
	Input string `toml:"input"`

	Mode     string `toml:"mode"`
	LogLevel string `toml:"log_level"`
}

// ChainConfig describes the chain being indexed and the RPC endpoint used for
// contract reads (condition state, token metadata, express payouts).
type ChainConfig struct {
	ID      int64    `toml:"id"`
	Name    string   `toml:"name"`
	RPCURL  string   `toml:"rpc_url"`
	Timeout duration `toml:"timeout"`
}

// PostgresConfig holds the primary entity store connection settings. Either
// DSN or the discrete host fields may be set; DSN wins when both are present.
type PostgresConfig struct {
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"ssl_mode"`

	MaxConns        int      `toml:"max_conns"`
	MinConns        int      `toml:"min_conns"`
	ConnMaxLifetime duration `toml:"conn_max_lifetime"`
	Migrate         bool     `toml:"migrate"`
}

// RedisConfig holds settings for the odds and metadata caches.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	OddsTTL     duration `toml:"odds_ttl"`
	MetadataTTL duration `toml:"metadata_ttl"`
}

// S3Config holds settings for raw event archival.
type S3Config struct {
	Enabled      bool   `toml:"enabled"`
	Endpoint     string `toml:"endpoint"`
	Region       string `toml:"region"`
	Bucket       string `toml:"bucket"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	Prefix       string `toml:"prefix"`
	UsePathStyle bool   `toml:"use_path_style"`

	FlushInterval duration `toml:"flush_interval"`
	MaxBatch      int      `toml:"max_batch"`
}

// MetadataConfig controls the IPFS gateway client used to resolve game
// metadata hashes.
type MetadataConfig struct {
	GatewayURL        string   `toml:"gateway_url"`
	RequestTimeout    duration `toml:"request_timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	MaxRetries        int      `toml:"max_retries"`
}

// PipelineConfig controls the event dispatch loop.
type PipelineConfig struct {
	BufferSize      int      `toml:"buffer_size"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// PoolConfig seeds one liquidity pool and its core contracts. Pools are not
// discovered from events; deployments are pinned here.
type PoolConfig struct {
	Address          string       `toml:"address"`
	Version          string       `toml:"version"`
	TokenAddress     string       `toml:"token_address"`
	LiquidityManager string       `toml:"liquidity_manager"`
	FirstBlockNumber int64        `toml:"first_block_number"`
	FirstBlockTime   int64        `toml:"first_block_time"`
	Cores            []CoreConfig `toml:"cores"`
}

// CoreConfig seeds one betting core attached to a pool. PrematchAddress is
// only meaningful for express cores and names the paired single-bet core.
type CoreConfig struct {
	Address         string `toml:"address"`
	Type            string `toml:"type"`
	Version         string `toml:"version"`
	PrematchAddress string `toml:"prematch_address"`
}

// FreebetConfig seeds one freebet contract.
type FreebetConfig struct {
	Address     string `toml:"address"`
	LPAddress   string `toml:"lp_address"`
	Name        string `toml:"name"`
	Affiliate   string `toml:"affiliate"`
	Manager     string `toml:"manager"`
}

// SportConfig maps an on-chain sport id to its display name and hub. Unknown
// ids fall back to a generated name at runtime.
type SportConfig struct {
	Name string `toml:"name"`
	Hub  string `toml:"hub"`
}

// duration wraps time.Duration so TOML values can be written as "30s", "5m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with defaults for every field that has
// one. Loading merges the TOML file and environment overrides on top.
func Defaults() *Config {
	return &Config{
		Mode:     "index",
		LogLevel: "info",
		Chain: ChainConfig{
			ID:      137,
			Name:    "polygon",
			Timeout: duration{10 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "betcore",
			Database:        "betcore",
			SSLMode:         "disable",
			MaxConns:        10,
			MinConns:        2,
			ConnMaxLifetime: duration{30 * time.Minute},
			Migrate:         true,
		},
		Redis: RedisConfig{
			Enabled:     true,
			Addr:        "localhost:6379",
			OddsTTL:     duration{24 * time.Hour},
			MetadataTTL: duration{7 * 24 * time.Hour},
		},
		S3: S3Config{
			Region:        "us-east-1",
			Prefix:        "events",
			FlushInterval: duration{time.Minute},
			MaxBatch:      10_000,
		},
		Metadata: MetadataConfig{
			GatewayURL:        "https://ipfs.io/ipfs",
			RequestTimeout:    duration{15 * time.Second},
			RequestsPerSecond: 5,
			Burst:             10,
			MaxRetries:        3,
		},
		Pipeline: PipelineConfig{
			BufferSize:      1024,
			ShutdownTimeout: duration{10 * time.Second},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		Sports: map[string]SportConfig{},
	}
}

var validModes = map[string]bool{
	"index":  true,
	"dryrun": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validCoreTypes = map[string]bool{
	"single":  true,
	"express": true,
	"live":    true,
}

var validVersions = map[string]bool{
	"V1": true,
	"V2": true,
	"V3": true,
}

// Validate checks the configuration for internal consistency and reports all
// problems at once.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[c.Mode] {
		errs = append(errs, fmt.Sprintf("mode: %q is not one of index, dryrun", c.Mode))
	}
	if !validLogLevels[c.LogLevel] {
		errs = append(errs, fmt.Sprintf("log_level: %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if c.Chain.ID <= 0 {
		errs = append(errs, "chain.id: must be positive")
	}
	if c.Chain.Name == "" {
		errs = append(errs, "chain.name: must not be empty")
	}
	if c.Mode == "index" {
		if c.Chain.RPCURL == "" {
			errs = append(errs, "chain.rpc_url: required in index mode")
		}
		if c.Postgres.DSN == "" && c.Postgres.Host == "" {
			errs = append(errs, "postgres: either dsn or host must be set in index mode")
		}
	}
	if c.Postgres.MaxConns < c.Postgres.MinConns {
		errs = append(errs, "postgres.max_conns: must be >= postgres.min_conns")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr: required when redis is enabled")
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3.bucket: required when s3 is enabled")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			errs = append(errs, "s3: access_key and secret_key required when s3 is enabled")
		}
	}
	if c.Metadata.GatewayURL == "" {
		errs = append(errs, "metadata.gateway_url: must not be empty")
	}
	if c.Metadata.RequestsPerSecond <= 0 {
		errs = append(errs, "metadata.requests_per_second: must be positive")
	}
	if c.Pipeline.BufferSize <= 0 {
		errs = append(errs, "pipeline.buffer_size: must be positive")
	}
	if len(c.Pools) == 0 {
		errs = append(errs, "pools: at least one pool must be configured")
	}

	seenPools := map[string]bool{}
	for i, p := range c.Pools {
		where := fmt.Sprintf("pools[%d]", i)
		if p.Address == "" {
			errs = append(errs, where+".address: must not be empty")
		} else if seenPools[strings.ToLower(p.Address)] {
			errs = append(errs, where+".address: duplicate pool "+p.Address)
		} else {
			seenPools[strings.ToLower(p.Address)] = true
		}
		if !validVersions[p.Version] {
			errs = append(errs, fmt.Sprintf("%s.version: %q is not one of V1, V2, V3", where, p.Version))
		}
		if p.TokenAddress == "" {
			errs = append(errs, where+".token_address: must not be empty")
		}
		if len(p.Cores) == 0 {
			errs = append(errs, where+".cores: at least one core must be configured")
		}
		for j, core := range p.Cores {
			cw := fmt.Sprintf("%s.cores[%d]", where, j)
			if core.Address == "" {
				errs = append(errs, cw+".address: must not be empty")
			}
			if !validCoreTypes[core.Type] {
				errs = append(errs, fmt.Sprintf("%s.type: %q is not one of single, express, live", cw, core.Type))
			}
			if !validVersions[core.Version] {
				errs = append(errs, fmt.Sprintf("%s.version: %q is not one of V1, V2, V3", cw, core.Version))
			}
			if core.Type == "express" && core.PrematchAddress == "" {
				errs = append(errs, cw+".prematch_address: required for express cores")
			}
		}
	}

	for i, fb := range c.Freebets {
		where := fmt.Sprintf("freebets[%d]", i)
		if fb.Address == "" {
			errs = append(errs, where+".address: must not be empty")
		}
		if fb.LPAddress != "" && !seenPools[strings.ToLower(fb.LPAddress)] {
			errs = append(errs, where+".lp_address: no configured pool at "+fb.LPAddress)
		}
	}

	for id, s := range c.Sports {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("sports[%s].name: must not be empty", id))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
