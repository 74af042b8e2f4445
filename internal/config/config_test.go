package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/playperu/hooplink/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.BlobBackend != config.BackendSQLite {
		t.Errorf("BlobBackend = %q", cfg.BlobBackend)
	}
	if cfg.SessionTTL != 168*time.Hour {
		t.Errorf("SessionTTL = %s", cfg.SessionTTL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %s", cfg.LogLevel)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"memory backend", map[string]string{"BLOB_BACKEND": "memory"}, false},
		{"redis with url", map[string]string{"BLOB_BACKEND": "redis", "REDIS_URL": "redis://localhost:6379/0"}, false},
		{"redis without url", map[string]string{"BLOB_BACKEND": "redis"}, true},
		{"unknown backend", map[string]string{"BLOB_BACKEND": "etcd"}, true},
		{"zero ttl", map[string]string{"SESSION_TTL": "0s"}, true},
		{"debug level", map[string]string{"LOG_LEVEL": "DEBUG"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
