// Package config loads service configuration from defaults, an optional YAML
// file and BIKEROUTE_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/bikeroute/bikeroute/internal/database"
)

// Gazetteer sources.
const (
	GazetteerBuiltin  = "builtin"
	GazetteerPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Gazetteer GazetteerConfig `mapstructure:"gazetteer"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ZerologLevel parses Level, falling back to info.
func (l LogConfig) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

type GeocodingConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	UserAgent       string        `mapstructure:"user_agent"`
	CountryCodes    string        `mapstructure:"country_codes"`
	RateInterval    time.Duration `mapstructure:"rate_interval"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	Timeout         time.Duration `mapstructure:"timeout"`
	SuggestDebounce time.Duration `mapstructure:"suggest_debounce"`
	SuggestMinChars int           `mapstructure:"suggest_min_chars"`
	SuggestLimit    int           `mapstructure:"suggest_limit"`
	// Offline skips the remote provider entirely.
	Offline bool `mapstructure:"offline"`
}

type GazetteerConfig struct {
	Source string `mapstructure:"source"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Connection converts to the database package configuration.
func (d DatabaseConfig) Connection() database.Config {
	return database.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.DBName,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	}
}

type PlannerConfig struct {
	DirectLatency    time.Duration `mapstructure:"direct_latency"`
	RealisticLatency time.Duration `mapstructure:"realistic_latency"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	Environment  string `mapstructure:"environment"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")

	v.SetDefault("geocoding.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.user_agent", "BikeRoutePlanner/1.0")
	v.SetDefault("geocoding.country_codes", "de")
	v.SetDefault("geocoding.rate_interval", time.Second)
	v.SetDefault("geocoding.cache_ttl", time.Hour)
	v.SetDefault("geocoding.timeout", 10*time.Second)
	v.SetDefault("geocoding.suggest_debounce", 500*time.Millisecond)
	v.SetDefault("geocoding.suggest_min_chars", 3)
	v.SetDefault("geocoding.suggest_limit", 5)
	v.SetDefault("geocoding.offline", false)

	v.SetDefault("gazetteer.source", GazetteerBuiltin)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "bikeroute")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "bikeroute")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("planner.direct_latency", time.Duration(0))
	v.SetDefault("planner.realistic_latency", time.Duration(0))

	v.SetDefault("telemetry.service_name", "bikeroute-api")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
}

// Load reads configuration. Extra search paths are tried before "." and "./configs".
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// BIKEROUTE_GEOCODING_RATE_INTERVAL -> geocoding.rate_interval
	v.SetEnvPrefix("BIKEROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration values are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	if !c.Geocoding.Offline {
		if u, err := url.Parse(c.Geocoding.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("geocoding.base_url must be an absolute URL, got %q", c.Geocoding.BaseURL))
		}
		if c.Geocoding.UserAgent == "" {
			errs = append(errs, "geocoding.user_agent is required")
		}
	}
	if c.Geocoding.RateInterval <= 0 {
		errs = append(errs, "geocoding.rate_interval must be positive")
	}
	if c.Geocoding.CacheTTL <= 0 {
		errs = append(errs, "geocoding.cache_ttl must be positive")
	}
	if c.Geocoding.Timeout <= 0 {
		errs = append(errs, "geocoding.timeout must be positive")
	}
	if c.Geocoding.SuggestDebounce < 0 {
		errs = append(errs, "geocoding.suggest_debounce must not be negative")
	}
	if c.Geocoding.SuggestMinChars < 1 {
		errs = append(errs, "geocoding.suggest_min_chars must be at least 1")
	}
	if c.Geocoding.SuggestLimit < 1 {
		errs = append(errs, "geocoding.suggest_limit must be at least 1")
	}

	switch c.Gazetteer.Source {
	case GazetteerBuiltin:
	case GazetteerPostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required for the postgres gazetteer")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required for the postgres gazetteer")
		}
	default:
		errs = append(errs, fmt.Sprintf("gazetteer.source must be %q or %q, got %q",
			GazetteerBuiltin, GazetteerPostgres, c.Gazetteer.Source))
	}

	if c.Planner.DirectLatency < 0 || c.Planner.RealisticLatency < 0 {
		errs = append(errs, "planner latencies must not be negative")
	}

	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry.otlp_endpoint is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
