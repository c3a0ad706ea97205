package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileEnv names the variable pointing at an optional YAML config file.
const ConfigFileEnv = "DQEVAL_CONFIG"

type Config struct {
	Addr                   string        `koanf:"addr"`
	DatabaseURL            string        `koanf:"database_url"`
	Environment            string        `koanf:"environment"`
	LogLevel               string        `koanf:"log_level"`
	MigrationsDir          string        `koanf:"migrations_dir"`
	SeedFile               string        `koanf:"seed_file"`
	RunMigrations          bool          `koanf:"run_migrations"`
	RunSeed                bool          `koanf:"run_seed"`
	MaxBodyBytes           int64         `koanf:"max_body_bytes"`
	RateLimitPerMinute     int           `koanf:"rate_limit_per_minute"`
	MetricsEnabled         bool          `koanf:"metrics_enabled"`
	DBMaxConns             int32         `koanf:"db_max_conns"`
	DBMinConns             int32         `koanf:"db_min_conns"`
	DBMaxConnLifetime      time.Duration `koanf:"db_max_conn_lifetime"`
	RequestTimeout         time.Duration `koanf:"request_timeout"`
	ParticipantEmailDomain string        `koanf:"participant_email_domain"`
}

// envKeys maps the supported environment variables onto koanf keys.
var envKeys = map[string]string{
	"APP_ADDR":                 "addr",
	"DATABASE_URL":             "database_url",
	"APP_ENV":                  "environment",
	"LOG_LEVEL":                "log_level",
	"MIGRATIONS_DIR":           "migrations_dir",
	"SEED_FILE":                "seed_file",
	"RUN_MIGRATIONS":           "run_migrations",
	"RUN_SEED":                 "run_seed",
	"MAX_BODY_BYTES":           "max_body_bytes",
	"RATE_LIMIT_PER_MINUTE":    "rate_limit_per_minute",
	"METRICS_ENABLED":          "metrics_enabled",
	"DB_MAX_CONNS":             "db_max_conns",
	"DB_MIN_CONNS":             "db_min_conns",
	"DB_MAX_CONN_LIFETIME":     "db_max_conn_lifetime",
	"REQUEST_TIMEOUT":          "request_timeout",
	"PARTICIPANT_EMAIL_DOMAIN": "participant_email_domain",
}

func Defaults() Config {
	return Config{
		Addr:                   ":8080",
		Environment:            "development",
		LogLevel:               "info",
		MigrationsDir:          "migrations",
		SeedFile:               "seed/catalog.yaml",
		RunMigrations:          true,
		RunSeed:                true,
		MaxBodyBytes:           1048576,
		RateLimitPerMinute:     120,
		MetricsEnabled:         true,
		DBMaxConns:             10,
		DBMinConns:             2,
		DBMaxConnLifetime:      time.Hour,
		RequestTimeout:         15 * time.Second,
		ParticipantEmailDomain: "participants.invalid",
	}
}

// Load layers defaults, the optional YAML file named by DQEVAL_CONFIG and the
// process environment, in that order of precedence.
func Load() (Config, error) {
	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load config env: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func envKey(name string) string {
	return envKeys[name]
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("APP_ADDR must not be empty")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	if c.Environment == "production" && c.RunSeed && strings.TrimSpace(c.SeedFile) == "" {
		return fmt.Errorf("SEED_FILE must be set or RUN_SEED disabled in production")
	}
	return nil
}
