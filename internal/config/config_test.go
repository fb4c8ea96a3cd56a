package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBDriver != DriverLibSQL || cfg.DBPath != "data/artsociety.db" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LockTTL != 10*time.Second {
		t.Errorf("level/ttl = %v/%v", cfg.LogLevel, cfg.LockTTL)
	}
	if cfg.NATSSubject != "artsociety.games" || cfg.ClickHouseDB != "default" {
		t.Errorf("subject/db = %q/%q", cfg.NATSSubject, cfg.ClickHouseDB)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/art?sslmode=disable")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != DriverPostgres || cfg.LogLevel != slog.LevelDebug || cfg.LockTTL != 3*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("redis url = %q", cfg.RedisURL)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, `DB_DRIVER "mysql"`},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL is required"},
		{"zero lock ttl", map[string]string{"LOCK_TTL": "0s"}, "LOCK_TTL must be positive"},
		{"bad duration", map[string]string{"LOCK_TTL": "soon"}, "parsing environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMemoryDriverNeedsNothing(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
