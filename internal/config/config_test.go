package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://localhost/interntrack")

	cfg, err := fromViper(newViper())
	if err != nil {
		t.Fatalf("fromViper failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Errorf("Expected postgres driver, got %s", cfg.StoreDriver)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"*"}) {
		t.Errorf("Expected wildcard origins, got %v", cfg.CORSOrigins)
	}
	if cfg.AuthRateLimit != 15 || cfg.AuthRateWindow != 15*time.Minute {
		t.Errorf("Expected 15 auth requests per 15m, got %d per %s", cfg.AuthRateLimit, cfg.AuthRateWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_RATE_LIMIT", "5")
	t.Setenv("AUTH_RATE_WINDOW", "1m")

	cfg, err := fromViper(newViper())
	if err != nil {
		t.Fatalf("fromViper failed: %v", err)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("Expected memory driver, got %s", cfg.StoreDriver)
	}
	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("Expected %v, got %v", want, cfg.CORSOrigins)
	}
	if !cfg.IsDevelopment() {
		t.Error("Expected development mode")
	}
	if cfg.AuthRateLimit != 5 || cfg.AuthRateWindow != time.Minute {
		t.Errorf("Expected 5 auth requests per 1m, got %d per %s", cfg.AuthRateLimit, cfg.AuthRateWindow)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := fromViper(newViper()); err == nil {
		t.Error("Expected error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := fromViper(newViper()); err == nil {
		t.Error("Expected error without DATABASE_URL")
	}

	t.Setenv("STORE_DRIVER", "sqlite")
	if _, err := fromViper(newViper()); err == nil {
		t.Error("Expected error for unknown driver")
	}
}
