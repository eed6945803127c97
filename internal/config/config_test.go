package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "mfi.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 30, cfg.Store.FetchTimeoutSecs)
	assert.Equal(t, 3, cfg.Store.FetchRetries)
	assert.InDelta(t, 60, cfg.Scoring.SATWeight, 0.001)
	assert.InDelta(t, 20, cfg.Scoring.IEGWeight, 0.001)
	assert.InDelta(t, 20, cfg.Scoring.PTWeight, 0.001)
	assert.Equal(t, "legacy", cfg.Scoring.PartlyMetPolicy)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrentCompanies)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 20, cfg.Server.RateLimitRPS, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/mfi
log:
  level: debug
  format: console
scoring:
  partly_met_policy: declared
batch:
  max_concurrent_companies: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/mfi", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "declared", cfg.Scoring.PartlyMetPolicy)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentCompanies)
	// Defaults still apply for unset values
	assert.InDelta(t, 60, cfg.Scoring.SATWeight, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("MFI_STORE_DRIVER", "sqlite")
	t.Setenv("MFI_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("MFI_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "mfi.db"
	cfg.Batch.MaxConcurrentCompanies = 8
	cfg.Scoring.SATWeight = 60
	cfg.Scoring.IEGWeight = 20
	cfg.Scoring.PTWeight = 20
	cfg.Scoring.PartlyMetPolicy = "legacy"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateCompute_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("compute"))
	assert.NoError(t, validDefaults().Validate("import"))
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	// compute mode does not care about the port
	assert.NoError(t, cfg.Validate("compute"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("compute")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.MaxConcurrentCompanies = 0
	err := cfg.Validate("compute")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_companies must be between 1 and 50")

	cfg.Batch.MaxConcurrentCompanies = 51
	assert.Error(t, cfg.Validate("compute"))

	cfg.Batch.MaxConcurrentCompanies = 50
	assert.NoError(t, cfg.Validate("compute"))
}

func TestValidateScoringWeights(t *testing.T) {
	cfg := validDefaults()
	cfg.Scoring.SATWeight = 70

	err := cfg.Validate("compute")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must sum to 100")

	cfg.Scoring.SATWeight = 80
	cfg.Scoring.IEGWeight = -20
	cfg.Scoring.PTWeight = 40
	err = cfg.Validate("compute")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scoring weights must be >= 0")
}

func TestValidatePartlyMetPolicy(t *testing.T) {
	cfg := validDefaults()
	cfg.Scoring.PartlyMetPolicy = "declared"
	assert.NoError(t, cfg.Validate("compute"))

	cfg.Scoring.PartlyMetPolicy = "fixed"
	err := cfg.Validate("compute")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "partly_met_policy")
}
