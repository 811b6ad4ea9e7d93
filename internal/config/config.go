package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Google   GoogleConfig   `yaml:"google" mapstructure:"google"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Places   PlacesConfig   `yaml:"places" mapstructure:"places"`
	Ranking  RankingConfig  `yaml:"ranking" mapstructure:"ranking"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	IPLocate IPLocateConfig `yaml:"iplocate" mapstructure:"iplocate"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Google Maps Platform credentials and endpoints.
type GoogleConfig struct {
	APIKey        string `yaml:"api_key" mapstructure:"api_key"`
	PlacesBaseURL string `yaml:"places_base_url" mapstructure:"places_base_url"`
	GeocodeURL    string `yaml:"geocode_url" mapstructure:"geocode_url"`
}

// GeocodeConfig configures location resolution.
type GeocodeConfig struct {
	TimeoutSecs int            `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64        `yaml:"rate_limit" mapstructure:"rate_limit"`
	Fallback    FallbackConfig `yaml:"fallback" mapstructure:"fallback"`
}

// FallbackConfig is the location used when geocoding fails.
type FallbackConfig struct {
	Lat     float64 `yaml:"lat" mapstructure:"lat"`
	Lng     float64 `yaml:"lng" mapstructure:"lng"`
	Address string  `yaml:"address" mapstructure:"address"`
}

// PlacesConfig configures provider search.
type PlacesConfig struct {
	TimeoutSecs  int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RadiusMeters int `yaml:"radius_meters" mapstructure:"radius_meters"`
	MaxResults   int `yaml:"max_results" mapstructure:"max_results"`
}

// RankingConfig configures result ranking.
type RankingConfig struct {
	TopK int `yaml:"top_k" mapstructure:"top_k"`
}

// RetryConfig configures retries of transient upstream failures.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// IPLocateConfig configures the IP geolocation lookup.
type IPLocateConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	Token       string `yaml:"token" mapstructure:"token"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port"`
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRPM int      `yaml:"rate_limit_rpm" mapstructure:"rate_limit_rpm"`
}

// BatchConfig configures batch discovery runs.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeocodeTimeout returns the geocoding timeout as a duration.
func (c GeocodeConfig) GeocodeTimeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SearchTimeout returns the provider search timeout as a duration.
func (c PlacesConfig) SearchTimeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DISCOVERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a real default are still registered so that
	// AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.places_base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.geocode_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.timeout_secs", 15)
	v.SetDefault("geocode.rate_limit", 50)
	v.SetDefault("geocode.fallback.lat", 37.7749)
	v.SetDefault("geocode.fallback.lng", -122.4194)
	v.SetDefault("geocode.fallback.address", "San Francisco, CA, USA (fallback location)")
	v.SetDefault("places.timeout_secs", 30)
	v.SetDefault("places.radius_meters", 15000)
	v.SetDefault("places.max_results", 15)
	v.SetDefault("ranking.top_k", 10)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 200)
	v.SetDefault("retry.max_backoff_ms", 2000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("iplocate.url", "https://ipinfo.io/json")
	v.SetDefault("iplocate.token", "")
	v.SetDefault("iplocate.timeout_secs", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rpm", 120)
	v.SetDefault("batch.max_concurrent", 4)
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

// Validate checks that the settings required by mode are present.
// Modes: "serve", "discover", "locate".
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "serve", "discover":
		if c.Google.APIKey == "" {
			missing = append(missing, "google.api_key")
		}
	case "locate":
		if c.IPLocate.URL == "" {
			missing = append(missing, "iplocate.url")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required fields for %s: %s", mode, strings.Join(missing, ", "))
	}

	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return eris.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Ranking.TopK <= 0 {
		return eris.Errorf("config: ranking.top_k must be positive, got %d", c.Ranking.TopK)
	}
	if c.Geocode.Fallback.Lat < -90 || c.Geocode.Fallback.Lat > 90 ||
		c.Geocode.Fallback.Lng < -180 || c.Geocode.Fallback.Lng > 180 {
		return eris.Errorf("config: geocode.fallback out of range (%f, %f)", c.Geocode.Fallback.Lat, c.Geocode.Fallback.Lng)
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
