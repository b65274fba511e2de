package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
	Surcharges []SurchargeEntry `yaml:"surcharges" mapstructure:"surcharges"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Path        string            `yaml:"path" mapstructure:"path"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// CatalogConfig configures the rate catalog and description matching.
type CatalogConfig struct {
	Path                string  `yaml:"path" mapstructure:"path"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// ImportConfig configures spreadsheet import.
type ImportConfig struct {
	HeaderScanRows int `yaml:"header_scan_rows" mapstructure:"header_scan_rows"`
	Concurrency    int `yaml:"concurrency" mapstructure:"concurrency"`
}

// SurchargeEntry is a percentage row of the general abstract.
type SurchargeEntry struct {
	Label   string  `yaml:"label" mapstructure:"label"`
	Percent float64 `yaml:"percent" mapstructure:"percent"`
}

// FetchConfig configures remote rate schedule downloads.
type FetchConfig struct {
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("ESTIMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "estimates.db")
	v.SetDefault("catalog.similarity_threshold", 0.5)
	v.SetDefault("import.header_scan_rows", 10)
	v.SetDefault("import.concurrency", 4)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.rate_per_second", 2)
	v.SetDefault("fetch.user_agent", "estimate-cli")
	v.SetDefault("server.port", 8080)
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

// SurchargeList converts configured surcharges to model form, falling back to
// the standard set when none are configured.
func (c *Config) SurchargeList() []model.Surcharge {
	if len(c.Surcharges) == 0 {
		return model.DefaultSurcharges()
	}
	out := make([]model.Surcharge, 0, len(c.Surcharges))
	for _, s := range c.Surcharges {
		out = append(out, model.Surcharge{Label: s.Label, Percent: s.Percent})
	}
	return out
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
