/*
Package config loads service settings.

SOURCES (later wins):
  1. Defaults set below
  2. Optional config file (yaml, json or toml; -config flag)
  3. Optional .env.<env> file next to the config file (or in ./config),
     where <env> comes from ENV (DEV by default, TEST, PROD)
  4. Environment variables prefixed TUITION_, dots become underscores:
     TUITION_HTTP_PORT, TUITION_DB_DSN, TUITION_EXPORT_SINK, ...

List values given through the environment are comma separated
(TUITION_HTTP_ALLOWED_ORIGINS=https://a.edu,https://b.edu).
*/
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "TUITION"

type Config struct {
	Env     string        `mapstructure:"env"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Plan    PlanConfig    `mapstructure:"plan"`
	Export  ExportConfig  `mapstructure:"export"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Seed    SeedConfig    `mapstructure:"seed"`
	Log     LogConfig     `mapstructure:"log"`
}

type HTTPConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"` // sqlite3 | postgres
	DSN    string `mapstructure:"dsn"`
}

type CatalogConfig struct {
	Source    string        `mapstructure:"source"` // sql | remote | memory
	RemoteURL string        `mapstructure:"remote_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"` // empty disables redis
	TTL       time.Duration `mapstructure:"ttl"`
}

type PlanConfig struct {
	TailPadDays int    `mapstructure:"tail_pad_days"`
	Currency    string `mapstructure:"currency"`
}

type ExportConfig struct {
	Delimiter string `mapstructure:"delimiter"`
	BOM       bool   `mapstructure:"bom"`
	Sink      string `mapstructure:"sink"` // none | file | s3
	Dir       string `mapstructure:"dir"`
	S3Bucket  string `mapstructure:"s3_bucket"`
	S3Prefix  string `mapstructure:"s3_prefix"`
	S3Region  string `mapstructure:"s3_region"`
	S3Profile string `mapstructure:"s3_profile"`
}

type AuditConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text | json
}

// DelimiterRune returns the CSV delimiter as a rune.
func (e ExportConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(e.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// =============================================================================
// LOADING
// =============================================================================

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "DEV")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "tuition.db")
	v.SetDefault("catalog.source", "sql")
	v.SetDefault("catalog.remote_url", "")
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("plan.tail_pad_days", 29)
	v.SetDefault("plan.currency", "PEN")
	v.SetDefault("export.delimiter", ",")
	v.SetDefault("export.bom", false)
	v.SetDefault("export.sink", "none")
	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.s3_bucket", "")
	v.SetDefault("export.s3_prefix", "plans")
	v.SetDefault("export.s3_region", "us-east-1")
	v.SetDefault("export.s3_profile", "")
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.interval", time.Hour)
	v.SetDefault("seed.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. path may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (default), TEST, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("env", env)

	dir := "config"
	if path != "" {
		dir = filepath.Dir(path)
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(dir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "load %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite3", "postgres":
	default:
		return errors.Wrapf(ErrInvalidConfig, "db.driver %q", c.DB.Driver)
	}

	switch c.Catalog.Source {
	case "sql", "memory":
	case "remote":
		if c.Catalog.RemoteURL == "" {
			return errors.Wrap(ErrInvalidConfig, "catalog.remote_url is required for the remote catalog")
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "catalog.source %q", c.Catalog.Source)
	}

	switch c.Export.Sink {
	case "none", "file":
	case "s3":
		if c.Export.S3Bucket == "" {
			return errors.Wrap(ErrInvalidConfig, "export.s3_bucket is required for the s3 sink")
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "export.sink %q", c.Export.Sink)
	}

	if utf8.RuneCountInString(c.Export.Delimiter) != 1 {
		return errors.Wrapf(ErrInvalidConfig, "export.delimiter %q must be one character", c.Export.Delimiter)
	}
	if c.Plan.TailPadDays < 0 {
		return errors.Wrapf(ErrInvalidConfig, "plan.tail_pad_days %d", c.Plan.TailPadDays)
	}
	if c.Audit.Enabled && c.Audit.Interval <= 0 {
		return errors.Wrap(ErrInvalidConfig, "audit.interval must be positive")
	}
	return nil
}
