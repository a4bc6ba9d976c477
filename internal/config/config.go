// Package config loads the application configuration from config.yaml
// and ROADAUDIT_* environment variables, and owns global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Audit    AuditConfig    `yaml:"audit" mapstructure:"audit"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Routing  RoutingConfig  `yaml:"routing" mapstructure:"routing"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// BoundaryConfig locates the county boundary source. GeoJSONPath wins
// when both are set.
type BoundaryConfig struct {
	GeoJSONPath   string `yaml:"geojson_path" mapstructure:"geojson_path"`
	ShapefilePath string `yaml:"shapefile_path" mapstructure:"shapefile_path"`
	Name          string `yaml:"name" mapstructure:"name"`
}

// DataConfig locates the segment inventory files.
type DataConfig struct {
	SegmentsPath string `yaml:"segments_path" mapstructure:"segments_path"`
	OutputPath   string `yaml:"output_path" mapstructure:"output_path"`
	SummaryPath  string `yaml:"summary_path" mapstructure:"summary_path"`
}

// AuditConfig tunes the audit pass.
type AuditConfig struct {
	MinSeparation   float64 `yaml:"min_separation" mapstructure:"min_separation"`
	CallTimeoutSecs int     `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	ScanConcurrency int     `yaml:"scan_concurrency" mapstructure:"scan_concurrency"`
	Reopen          bool    `yaml:"reopen" mapstructure:"reopen"`
}

// GeocodeConfig tunes the intersection geocoding cascade.
type GeocodeConfig struct {
	County        string   `yaml:"county" mapstructure:"county"`
	State         string   `yaml:"state" mapstructure:"state"`
	Towns         []string `yaml:"towns" mapstructure:"towns"`
	MinScore      float64  `yaml:"min_score" mapstructure:"min_score"`
	RateLimitRPS  float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	CacheTTLHours int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// RoutingConfig tunes the routing chain.
type RoutingConfig struct {
	RateLimitRPS         float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	StraightLineFallback bool    `yaml:"straight_line_fallback" mapstructure:"straight_line_fallback"`
}

// ExtractConfig describes the CMS workbook layout. Column indices are
// zero-based; span_col -1 means separate from/to columns.
type ExtractConfig struct {
	Sheet    string `yaml:"sheet" mapstructure:"sheet"`
	SkipRows int    `yaml:"skip_rows" mapstructure:"skip_rows"`
	RoadCol  int    `yaml:"road_col" mapstructure:"road_col"`
	FromCol  int    `yaml:"from_col" mapstructure:"from_col"`
	ToCol    int    `yaml:"to_col" mapstructure:"to_col"`
	SpanCol  int    `yaml:"span_col" mapstructure:"span_col"`
}

// StoreConfig configures the audit-trail database.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the review API server.
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
	v.SetEnvPrefix("ROADAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("audit.min_separation", 0.001)
	v.SetDefault("audit.call_timeout_secs", 15)
	v.SetDefault("audit.scan_concurrency", 4)
	v.SetDefault("geocode.min_score", 65.0)
	v.SetDefault("geocode.rate_limit_rps", 3.0)
	v.SetDefault("geocode.cache_ttl_hours", 24)
	v.SetDefault("routing.rate_limit_rps", 1.0)
	v.SetDefault("routing.straight_line_fallback", true)
	v.SetDefault("extract.span_col", -1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "roadaudit.db")
	v.SetDefault("server.port", 8090)
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

// Validate checks the configuration for the given run mode and reports
// every problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Audit.MinSeparation <= 0 {
		problems = append(problems, "audit.min_separation must be > 0")
	}
	if c.Audit.ScanConcurrency < 1 || c.Audit.ScanConcurrency > 32 {
		problems = append(problems, "audit.scan_concurrency must be between 1 and 32")
	}

	switch mode {
	case "audit", "clip":
		if c.Boundary.GeoJSONPath == "" && c.Boundary.ShapefilePath == "" {
			problems = append(problems, "boundary.geojson_path or boundary.shapefile_path is required")
		}
		if c.Data.SegmentsPath == "" {
			problems = append(problems, "data.segments_path is required")
		}
	case "extract":
		if c.Extract.RoadCol < 0 {
			problems = append(problems, "extract.road_col must be >= 0")
		}
		if c.Extract.SpanCol < 0 && c.Extract.FromCol == c.Extract.ToCol {
			problems = append(problems, "extract.from_col and extract.to_col must differ")
		}
		if c.Data.OutputPath == "" {
			problems = append(problems, "data.output_path is required")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Data.SegmentsPath == "" {
			problems = append(problems, "data.segments_path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
