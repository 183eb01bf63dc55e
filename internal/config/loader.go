package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BETCORE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides reads well-known BETCORE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Mode, "BETCORE_MODE")
	setStr(&cfg.LogLevel, "BETCORE_LOG_LEVEL")
	setStr(&cfg.Input, "BETCORE_INPUT")

	// ── Chain ──
	setInt64(&cfg.Chain.ID, "BETCORE_CHAIN_ID")
	setStr(&cfg.Chain.Name, "BETCORE_CHAIN_NAME")
	setStr(&cfg.Chain.RPCURL, "BETCORE_CHAIN_RPC_URL")
	setDuration(&cfg.Chain.Timeout, "BETCORE_CHAIN_TIMEOUT")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "BETCORE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BETCORE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BETCORE_POSTGRES_PORT")
	setStr(&cfg.Postgres.User, "BETCORE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BETCORE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.Database, "BETCORE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.SSLMode, "BETCORE_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.MaxConns, "BETCORE_POSTGRES_MAX_CONNS")
	setInt(&cfg.Postgres.MinConns, "BETCORE_POSTGRES_MIN_CONNS")
	setBool(&cfg.Postgres.Migrate, "BETCORE_POSTGRES_MIGRATE")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "BETCORE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "BETCORE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BETCORE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BETCORE_REDIS_DB")
	setDuration(&cfg.Redis.OddsTTL, "BETCORE_REDIS_ODDS_TTL")
	setDuration(&cfg.Redis.MetadataTTL, "BETCORE_REDIS_METADATA_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "BETCORE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "BETCORE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BETCORE_S3_REGION")
	setStr(&cfg.S3.Bucket, "BETCORE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BETCORE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BETCORE_S3_SECRET_KEY")
	setStr(&cfg.S3.Prefix, "BETCORE_S3_PREFIX")
	setDuration(&cfg.S3.FlushInterval, "BETCORE_S3_FLUSH_INTERVAL")
	setInt(&cfg.S3.MaxBatch, "BETCORE_S3_MAX_BATCH")

	// ── Metadata ──
	setStr(&cfg.Metadata.GatewayURL, "BETCORE_METADATA_GATEWAY_URL")
	setDuration(&cfg.Metadata.RequestTimeout, "BETCORE_METADATA_REQUEST_TIMEOUT")
	setFloat64(&cfg.Metadata.RequestsPerSecond, "BETCORE_METADATA_REQUESTS_PER_SECOND")
	setInt(&cfg.Metadata.Burst, "BETCORE_METADATA_BURST")
	setInt(&cfg.Metadata.MaxRetries, "BETCORE_METADATA_MAX_RETRIES")

	// ── Pipeline ──
	setInt(&cfg.Pipeline.BufferSize, "BETCORE_PIPELINE_BUFFER_SIZE")
	setDuration(&cfg.Pipeline.ShutdownTimeout, "BETCORE_PIPELINE_SHUTDOWN_TIMEOUT")

	// ── Metrics ──
	setBool(&cfg.Metrics.Enabled, "BETCORE_METRICS_ENABLED")
	setStr(&cfg.Metrics.Addr, "BETCORE_METRICS_ADDR")
}

// ── typed env helpers ──

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
