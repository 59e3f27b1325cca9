// Package config loads the service configuration from the environment and an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kalpovskii/checklist-ai/internal/app/suggest"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// Config holds every setting of the API process. It is loaded once at
// startup and passed down explicitly.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// Store selects the task store: memory, postgres or sqlite.
	Store string

	// DBDriver is the database/sql driver used for the postgres store.
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// SQLitePath is the database file of the sqlite store.
	SQLitePath string

	// OpenAI settings. An empty APIKey is allowed; suggestion calls fail
	// when they are made.
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	OpenAIMaxTokens int64
	SuggestTimeout  time.Duration

	// RedisAddr enables the task cache when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KafkaBroker and KafkaTopic enable task event publishing when both are set.
	KafkaBroker string
	KafkaTopic  string

	LogLevel        string
	ShutdownTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("STORE", StoreMemory)
	v.SetDefault("DB_DRIVER", DriverPQ)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "tasks.db")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("OPENAI_MAX_TOKENS", 100)
	v.SetDefault("SUGGEST_TIMEOUT", "30s")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKER", "")
	v.SetDefault("KAFKA_TOPIC", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

// Load reads the configuration. Values from the process environment win over
// the .env file at envFile; a missing file is not an error.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{
		Port:            v.GetString("PORT"),
		Store:           strings.ToLower(strings.TrimSpace(v.GetString("STORE"))),
		DBDriver:        strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DBHost:          v.GetString("DB_HOST"),
		DBPort:          v.GetString("DB_PORT"),
		DBUser:          v.GetString("DB_USER"),
		DBPassword:      v.GetString("DB_PASSWORD"),
		DBName:          v.GetString("DB_NAME"),
		DBSSLMode:       v.GetString("DB_SSLMODE"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
		OpenAIModel:     v.GetString("OPENAI_MODEL"),
		OpenAIBaseURL:   v.GetString("OPENAI_BASE_URL"),
		OpenAIMaxTokens: v.GetInt64("OPENAI_MAX_TOKENS"),
		SuggestTimeout:  v.GetDuration("SUGGEST_TIMEOUT"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		KafkaBroker:     v.GetString("KAFKA_BROKER"),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the process cannot start without. The OpenAI key
// is not one of them.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT is not configured")
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is not configured")
		}
	case StorePostgres:
		if c.DBDriver != DriverPQ && c.DBDriver != DriverPGX {
			return fmt.Errorf("unknown DB_DRIVER %q (want %s or %s)", c.DBDriver, DriverPQ, DriverPGX)
		}
		if strings.TrimSpace(c.DBName) == "" {
			return errors.New("DB_NAME is not configured")
		}
	default:
		return fmt.Errorf("unknown STORE %q (want %s, %s or %s)", c.Store, StoreMemory, StorePostgres, StoreSQLite)
	}
	if c.SuggestTimeout <= 0 {
		return errors.New("SUGGEST_TIMEOUT must be positive")
	}
	return nil
}

// PostgresDSN returns a key/value connection string understood by both
// lib/pq and pgx.
func (c *Config) PostgresDSN() string {
	parts := []string{
		"host=" + quoteDSN(c.DBHost),
		"port=" + quoteDSN(c.DBPort),
		"dbname=" + quoteDSN(c.DBName),
		"sslmode=" + quoteDSN(c.DBSSLMode),
	}
	if c.DBUser != "" {
		parts = append(parts, "user="+quoteDSN(c.DBUser))
	}
	if c.DBPassword != "" {
		parts = append(parts, "password="+quoteDSN(c.DBPassword))
	}
	return strings.Join(parts, " ")
}

func (c *Config) Suggest() suggest.Config {
	return suggest.Config{
		APIKey:    c.OpenAIAPIKey,
		Model:     c.OpenAIModel,
		BaseURL:   c.OpenAIBaseURL,
		MaxTokens: c.OpenAIMaxTokens,
		Timeout:   c.SuggestTimeout,
	}
}

func (c *Config) KafkaEnabled() bool {
	return c.KafkaBroker != "" && c.KafkaTopic != ""
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// Redacted returns the settings safe to log.
func (c *Config) Redacted() map[string]any {
	base := c.OpenAIBaseURL
	if u, err := url.Parse(base); err == nil {
		u.User = nil
		base = u.String()
	}
	return map[string]any{
		"port":            c.Port,
		"store":           c.Store,
		"db_driver":       c.DBDriver,
		"db_host":         c.DBHost,
		"db_name":         c.DBName,
		"sqlite_path":     c.SQLitePath,
		"openai_model":    c.OpenAIModel,
		"openai_base_url": base,
		"openai_key_set":  c.OpenAIAPIKey != "",
		"suggest_timeout": c.SuggestTimeout.String(),
		"redis":           c.RedisAddr != "",
		"kafka":           c.KafkaEnabled(),
	}
}

func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
