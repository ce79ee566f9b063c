package config_test

import (
	"testing"
	"time"

	"github.com/Skryldev/steg-extractor/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Retention != 24*time.Hour {
		t.Errorf("retention: got %v, want 24h", cfg.Retention)
	}
	if cfg.Storage != config.StorageLocal {
		t.Errorf("storage backend: got %q, want local", cfg.Storage)
	}
	if cfg.ListenAddr != ":5000" {
		t.Errorf("listen addr: got %q, want :5000", cfg.ListenAddr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"default", func(*config.Config) {}, true},
		{"s3 backend", func(c *config.Config) { c.Storage = config.StorageS3 }, true},
		{"zero chunk size", func(c *config.Config) { c.ChunkSize = 0 }, false},
		{"zero fetch timeout", func(c *config.Config) { c.FetchTimeout = 0 }, false},
		{"zero retention", func(c *config.Config) { c.Retention = 0 }, false},
		{"zero sweep interval", func(c *config.Config) { c.SweepInterval = 0 }, false},
		{"unknown backend", func(c *config.Config) { c.Storage = "ftp" }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := config.Validate(cfg)
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
