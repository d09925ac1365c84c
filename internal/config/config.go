// Package config loads application configuration and wires the global logger.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/office-atlas/atlas-cli/internal/source"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Dedupe  DedupeConfig  `yaml:"dedupe" mapstructure:"dedupe"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`

	// SourcesFile points at the YAML file describing the configured sources.
	SourcesFile string `yaml:"sources_file" mapstructure:"sources_file"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	// Driver is one of "file", "sqlite", "postgres".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GeocodeConfig configures the Nominatim resolver.
type GeocodeConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	CityQualifier string `yaml:"city_qualifier" mapstructure:"city_qualifier"`
	MinIntervalMs int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FetchConfig configures page retrieval.
type FetchConfig struct {
	PageDelaySecs int    `yaml:"page_delay_secs" mapstructure:"page_delay_secs"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	// ChromePath overrides headless Chrome discovery for the browser fetcher.
	ChromePath string `yaml:"chrome_path" mapstructure:"chrome_path"`
	// DisableBrowser forces every source onto the plain HTTP fetcher.
	DisableBrowser bool `yaml:"disable_browser" mapstructure:"disable_browser"`
}

// DedupeConfig configures duplicate detection.
type DedupeConfig struct {
	ThresholdKM float64 `yaml:"threshold_km" mapstructure:"threshold_km"`
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
	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", "data/scraped_offices.json")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.user_agent", "office-atlas/1.0")
	v.SetDefault("geocode.city_qualifier", "Đà Nẵng, Vietnam")
	v.SetDefault("geocode.min_interval_ms", 1500)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("fetch.page_delay_secs", 4)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("dedupe.threshold_km", 0.1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("sources_file", "sources.yaml")

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

// defaultSources mirrors the sites this collector was built around, in the
// order they should contribute to the first-wins merge.
func defaultSources() []source.Spec {
	return []source.Spec{
		{Name: "batdongsan.com.vn", Enabled: true, MaxPages: 5, Fetcher: "browser"},
		{Name: "alonhadat.com.vn", Enabled: true, MaxPages: 5, Fetcher: "http"},
		{Name: "chotot.com", Enabled: true, MaxPages: 3, Fetcher: "browser"},
		{Name: "muaban.net", Enabled: true, MaxPages: 3, Fetcher: "http"},
		{Name: "homedy.com", Enabled: true, MaxPages: 2, Fetcher: "http"},
	}
}

// LoadSources reads source specs from the given YAML file. A missing file
// yields the built-in defaults.
func LoadSources(path string) ([]source.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSources(), nil
		}
		return nil, eris.Wrapf(err, "config: read %s", path)
	}

	var doc struct {
		Sources []source.Spec `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "config: parse %s", path)
	}
	if len(doc.Sources) == 0 {
		return defaultSources(), nil
	}
	return doc.Sources, nil
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
