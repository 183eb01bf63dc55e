package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Chain.RPCURL = "https://polygon-rpc.example"
	cfg.Pools = []PoolConfig{{
		Address:      "0xaaa",
		Version:      "V3",
		TokenAddress: "0xusdt",
		Cores: []CoreConfig{
			{Address: "0xcore", Type: "single", Version: "V3"},
			{Address: "0xexpress", Type: "express", Version: "V3", PrematchAddress: "0xcore"},
		},
	}}
	return cfg
}

func TestValidateAcceptsSeededConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "replay"
	cfg.Pools[0].Cores[1].PrematchAddress = ""
	cfg.Pools[0].TokenAddress = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
	assert.Contains(t, err.Error(), "prematch_address")
	assert.Contains(t, err.Error(), "token_address")
}

func TestValidateRejectsDuplicatePools(t *testing.T) {
	cfg := validConfig()
	cfg.Pools = append(cfg.Pools, cfg.Pools[0])

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate pool")
}

func TestValidateRejectsFreebetWithUnknownPool(t *testing.T) {
	cfg := validConfig()
	cfg.Freebets = []FreebetConfig{{Address: "0xfb", LPAddress: "0xmissing"}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configured pool")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "betcore.toml")
	data := `
mode = "dryrun"

[chain]
id = 100
name = "gnosis"
rpc_url = "https://gnosis-rpc.example"

[metadata]
request_timeout = "30s"

[[pools]]
address = "0xaaa"
version = "V2"
token_address = "0xwxdai"

  [[pools.cores]]
  address = "0xcore"
  type = "single"
  version = "V2"

[sports]
[sports."33"]
name = "Football"
hub = "sports"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("BETCORE_POSTGRES_PASSWORD", "hunter2")
	t.Setenv("BETCORE_CHAIN_NAME", "gnosis-mainnet")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dryrun", cfg.Mode)
	assert.Equal(t, int64(100), cfg.Chain.ID)
	assert.Equal(t, "gnosis-mainnet", cfg.Chain.Name, "env should win over file")
	assert.Equal(t, 30*time.Second, cfg.Metadata.RequestTimeout.Duration)
	assert.Equal(t, "hunter2", cfg.Postgres.Password)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr, "defaults survive when file is silent")
	require.Len(t, cfg.Pools, 1)
	assert.Equal(t, "Football", cfg.Sports["33"].Name)

	require.NoError(t, cfg.Validate())
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "shhh"

	red := RedactedConfig(cfg)

	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "hunter2", cfg.Postgres.Password, "original untouched")

	red.Pools[0].Cores[0].Address = "mutated"
	assert.Equal(t, "0xcore", cfg.Pools[0].Cores[0].Address)
}
