package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver           string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL      string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns         int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns         int32  `yaml:"min_conns" mapstructure:"min_conns"`
	FetchTimeoutSecs int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	FetchRetries     int    `yaml:"fetch_retries" mapstructure:"fetch_retries"`
}

// ScoringConfig holds the composite weights and the legacy-table switches.
type ScoringConfig struct {
	SATWeight float64 `yaml:"sat_weight" mapstructure:"sat_weight"`
	IEGWeight float64 `yaml:"ieg_weight" mapstructure:"ieg_weight"`
	PTWeight  float64 `yaml:"pt_weight" mapstructure:"pt_weight"`

	// PartlyMetPolicy selects the PARTLY_MET coefficient: "legacy" (same as
	// NOT_MET, as the deployed table does) or "declared" (0.54).
	PartlyMetPolicy string `yaml:"partly_met_policy" mapstructure:"partly_met_policy"`
}

// BatchConfig configures per-company fan-out.
type BatchConfig struct {
	MaxConcurrentCompanies int `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MFI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "mfi.db")
	v.SetDefault("store.fetch_timeout_secs", 30)
	v.SetDefault("store.fetch_retries", 3)
	v.SetDefault("scoring.sat_weight", 60)
	v.SetDefault("scoring.ieg_weight", 20)
	v.SetDefault("scoring.pt_weight", 20)
	v.SetDefault("scoring.partly_met_policy", "legacy")
	v.SetDefault("batch.max_concurrent_companies", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
// Modes: "compute", "serve", "import".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "compute", "import":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server.rate_limit_rps must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	if c.Batch.MaxConcurrentCompanies < 1 || c.Batch.MaxConcurrentCompanies > 50 {
		errs = append(errs, "batch.max_concurrent_companies must be between 1 and 50")
	}

	s := c.Scoring
	if s.SATWeight < 0 || s.IEGWeight < 0 || s.PTWeight < 0 {
		errs = append(errs, "scoring weights must be >= 0")
	}
	if sum := s.SATWeight + s.IEGWeight + s.PTWeight; math.Abs(sum-100) > 0.001 {
		errs = append(errs, fmt.Sprintf("scoring weights must sum to 100, got %.2f", sum))
	}
	switch s.PartlyMetPolicy {
	case "legacy", "declared":
	default:
		errs = append(errs, fmt.Sprintf("scoring.partly_met_policy must be legacy or declared (got %q)", s.PartlyMetPolicy))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
