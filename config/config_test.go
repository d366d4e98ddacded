package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"JWT_TTL", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_WINDOW"} {
		t.Setenv(key, "")
	}
	t.Setenv("SERVER_PORT", "0")
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "postgres")

	cfg := LoadConfig()
	if cfg.ServerPort != 8080 {
		t.Fatalf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("JWTTTL = %v, want 24h", cfg.JWTTTL)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("Driver = %q, want %q", cfg.Database.Driver, DriverPostgres)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"*"}) {
		t.Fatalf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Fatalf("RateLimit.Window = %v, want 1m", cfg.RateLimit.Window)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "5000")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://tasks.example.com ,")
	t.Setenv("EVENTS_BACKEND", "RabbitMQ")

	cfg := LoadConfig()
	if cfg.ServerPort != 5000 {
		t.Fatalf("ServerPort = %d, want 5000", cfg.ServerPort)
	}
	if cfg.JWTTTL != 90*time.Minute {
		t.Fatalf("JWTTTL = %v, want 90m", cfg.JWTTTL)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Fatalf("Driver = %q, want %q", cfg.Database.Driver, DriverMemory)
	}
	if !cfg.Database.UseSSL {
		t.Fatalf("UseSSL = false, want true")
	}
	want := []string{"http://localhost:5173", "https://tasks.example.com"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.Events.Backend != "rabbitmq" {
		t.Fatalf("Events.Backend = %q, want rabbitmq", cfg.Events.Backend)
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "lots")
	t.Setenv("JWT_TTL", "forever")
	t.Setenv("MINIO_USE_SSL", "maybe")

	cfg := LoadConfig()
	if cfg.RateLimit.Max != 20 {
		t.Fatalf("RateLimit.Max = %d, want 20", cfg.RateLimit.Max)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("JWTTTL = %v, want 24h", cfg.JWTTTL)
	}
	if cfg.Storage.Minio.UseSSL {
		t.Fatalf("Minio.UseSSL = true, want false")
	}
}
