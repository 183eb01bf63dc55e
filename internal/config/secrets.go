package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	redact(&out.Chain.RPCURL)

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	redact(&out.Redis.Password)

	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Copy slices and maps so callers cannot mutate the original through the
	// redacted copy.
	if cfg.Pools != nil {
		out.Pools = make([]PoolConfig, len(cfg.Pools))
		copy(out.Pools, cfg.Pools)
		for i := range out.Pools {
			if cores := cfg.Pools[i].Cores; cores != nil {
				out.Pools[i].Cores = make([]CoreConfig, len(cores))
				copy(out.Pools[i].Cores, cores)
			}
		}
	}
	if cfg.Freebets != nil {
		out.Freebets = make([]FreebetConfig, len(cfg.Freebets))
		copy(out.Freebets, cfg.Freebets)
	}
	if cfg.Sports != nil {
		out.Sports = make(map[string]SportConfig, len(cfg.Sports))
		for k, v := range cfg.Sports {
			out.Sports[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
