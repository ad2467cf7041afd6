package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Port         int
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}
	App struct {
		Env string
	}
	Database struct {
		Driver          string
		Path            string
		Host            string
		Port            int
		Name            string
		User            string
		Password        string
		SSLMode         string
		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
		AutoMigrate     bool
	}
	CORS struct {
		AllowedOrigins []string
	}
	RateLimit struct {
		Max           int
		Window        time.Duration
		RedisAddr     string
		RedisPassword string
		RedisDB       int
	}
	Log struct {
		Dir     string
		Archive struct {
			Bucket   string
			Prefix   string
			Region   string
			Endpoint string
			Interval time.Duration
		}
	}
}

// Development reports whether the service runs in development mode.
func (c Config) Development() bool {
	return strings.EqualFold(strings.TrimSpace(c.App.Env), EnvDevelopment)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

var envBindings = map[string]string{
	"server.port":              "PORT",
	"server.readtimeout":       "SERVER_READ_TIMEOUT",
	"server.writetimeout":      "SERVER_WRITE_TIMEOUT",
	"app.env":                  "APP_ENV,NODE_ENV",
	"database.driver":          "DB_DRIVER",
	"database.path":            "DB_PATH",
	"database.host":            "PG_HOST",
	"database.port":            "PG_PORT",
	"database.name":            "PG_DATABASE",
	"database.user":            "PG_USER",
	"database.password":        "PG_PASSWORD",
	"database.sslmode":         "PG_SSLMODE",
	"database.maxopenconns":    "DB_MAX_OPEN_CONNS",
	"database.maxidleconns":    "DB_MAX_IDLE_CONNS",
	"database.connmaxlifetime": "DB_CONN_MAX_LIFETIME",
	"database.automigrate":     "DB_AUTO_MIGRATE",
	"cors.allowedorigins":      "CORS_ALLOWED_ORIGINS",
	"ratelimit.max":            "RATE_LIMIT_MAX",
	"ratelimit.window":         "RATE_LIMIT_WINDOW",
	"ratelimit.redisaddr":      "RATE_LIMIT_REDIS_ADDR",
	"ratelimit.redispassword":  "RATE_LIMIT_REDIS_PASSWORD",
	"ratelimit.redisdb":        "RATE_LIMIT_REDIS_DB",
	"log.dir":                  "LOG_DIR",
	"log.archive.bucket":       "LOG_ARCHIVE_BUCKET",
	"log.archive.prefix":       "LOG_ARCHIVE_PREFIX",
	"log.archive.region":       "LOG_ARCHIVE_REGION",
	"log.archive.endpoint":     "LOG_ARCHIVE_ENDPOINT",
	"log.archive.interval":     "LOG_ARCHIVE_INTERVAL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.readtimeout", 10*time.Second)
	v.SetDefault("server.writetimeout", 10*time.Second)
	v.SetDefault("app.env", EnvProduction)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/users.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "users_api")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxopenconns", 10)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", 30*time.Minute)
	v.SetDefault("database.automigrate", true)

	v.SetDefault("cors.allowedorigins", []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
	})

	v.SetDefault("ratelimit.max", 100)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.redisaddr", "")
	v.SetDefault("ratelimit.redispassword", "")
	v.SetDefault("ratelimit.redisdb", 0)

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.archive.bucket", "")
	v.SetDefault("log.archive.prefix", "users-api-logs")
	v.SetDefault("log.archive.region", "us-east-1")
	v.SetDefault("log.archive.endpoint", "")
	v.SetDefault("log.archive.interval", time.Hour)
}

// Load reads configuration from environment variables, an optional .env file and
// an optional config file in the working directory.
func Load() (Config, error) {
	return load(".env", ".")
}

func load(dotEnvPath, configDir string) (Config, error) {
	// existing environment variables win over .env entries
	if err := gotenv.Load(dotEnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotEnvPath, err)
	}

	v := viper.New()
	setDefaults(v)
	for key, envs := range envBindings {
		args := append([]string{key}, strings.Split(envs, ",")...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.RateLimit.Max <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimit.Max)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window)
	}
	return nil
}

// splitList trims entries and splits any that still contain commas.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
