// Package config reads process settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port          string
	DatabaseURL   string
	JWTSecret     string
	EncryptionKey string
	RedisURL      string
	GroqAPIKey    string
	GroqBaseURL   string
	GroqModel     string
	CORSOrigins   []string
	StoreDriver   string
	Env           string
	MCPUserID     string

	// Register and login share one budget per client IP.
	AuthRateLimit  int64
	AuthRateWindow time.Duration
}

func (c Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads .env (when present) into the environment and then resolves every
// setting through viper. JWT_SECRET is required.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("store_driver", DriverPostgres)
	v.SetDefault("app_env", "production")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("auth_rate_limit", 15)
	v.SetDefault("auth_rate_window", "15m")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{
		"database_url", "jwt_secret", "encryption_key", "redis_url",
		"groq_api_key", "groq_base_url", "groq_model", "mcp_user_id",
	} {
		v.BindEnv(key)
	}
	return v
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:          v.GetString("port"),
		DatabaseURL:   v.GetString("database_url"),
		JWTSecret:     v.GetString("jwt_secret"),
		EncryptionKey: v.GetString("encryption_key"),
		RedisURL:      v.GetString("redis_url"),
		GroqAPIKey:    v.GetString("groq_api_key"),
		GroqBaseURL:   v.GetString("groq_base_url"),
		GroqModel:     v.GetString("groq_model"),
		CORSOrigins:   splitList(v.GetString("cors_origins")),
		StoreDriver:   strings.ToLower(v.GetString("store_driver")),
		Env:           v.GetString("app_env"),
		MCPUserID:     v.GetString("mcp_user_id"),

		AuthRateLimit:  v.GetInt64("auth_rate_limit"),
		AuthRateWindow: v.GetDuration("auth_rate_window"),
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.AuthRateLimit <= 0 || cfg.AuthRateWindow <= 0 {
		return Config{}, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive")
	}
	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
