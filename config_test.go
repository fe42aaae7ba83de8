package guidestore

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Redis.Enabled() {
		t.Error("default config should not enable redis")
	}
	if cfg.Blob.Type != "filesystem" || cfg.Blob.Bucket != DefaultDataPath {
		t.Errorf("unexpected blob config: %+v", cfg.Blob)
	}
	if cfg.ContainerKey != DefaultContainerKey {
		t.Errorf("ContainerKey = %q, want %q", cfg.ContainerKey, DefaultContainerKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("GUIDESTORE_REDIS_ADDR", "")
		t.Setenv("GUIDESTORE_BACKEND", "")
		t.Setenv("GUIDESTORE_DATA_PATH", "")

		cfg := ConfigFromEnv()
		if cfg.Redis.Enabled() {
			t.Error("redis should be disabled without address")
		}
		if cfg.Blob.Bucket != DefaultDataPath {
			t.Errorf("Bucket = %q, want %q", cfg.Blob.Bucket, DefaultDataPath)
		}
	})

	t.Run("redis", func(t *testing.T) {
		t.Setenv("GUIDESTORE_REDIS_ADDR", "cache.internal:6379")
		t.Setenv("GUIDESTORE_REDIS_PASSWORD", "secret")
		t.Setenv("GUIDESTORE_REDIS_DB", "3")
		t.Setenv("GUIDESTORE_REDIS_PREFIX", "site")

		cfg := ConfigFromEnv()
		if !cfg.Redis.Enabled() {
			t.Fatal("redis should be enabled")
		}
		opts := cfg.Redis.Options()
		if opts.Addr != "cache.internal:6379" || opts.Password != "secret" || opts.DB != 3 {
			t.Errorf("unexpected redis options: %+v", opts)
		}
		if opts.MaxRetries != -1 {
			t.Errorf("MaxRetries = %d, want -1 (no retries)", opts.MaxRetries)
		}
		if cfg.Redis.Prefix != "site" {
			t.Errorf("Prefix = %q, want site", cfg.Redis.Prefix)
		}
	})

	t.Run("bad redis db falls back", func(t *testing.T) {
		t.Setenv("GUIDESTORE_REDIS_DB", "not-a-number")
		if got := ConfigFromEnv().Redis.DB; got != 0 {
			t.Errorf("DB = %d, want 0", got)
		}
	})

	t.Run("minio", func(t *testing.T) {
		t.Setenv("GUIDESTORE_BACKEND", "minio")
		t.Setenv("GUIDESTORE_BUCKET", "guides")
		t.Setenv("GUIDESTORE_ENDPOINT", "localhost:9000")
		t.Setenv("GUIDESTORE_USE_SSL", "true")

		cfg := ConfigFromEnv()
		if cfg.Blob.Type != "minio" || cfg.Blob.Bucket != "guides" || !cfg.Blob.UseSSL {
			t.Errorf("unexpected blob config: %+v", cfg.Blob)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("bolt", func(t *testing.T) {
		t.Setenv("GUIDESTORE_BACKEND", "bolt")
		t.Setenv("GUIDESTORE_BOLT_PATH", "")

		cfg := ConfigFromEnv()
		if cfg.Blob.Type != "bolt" || cfg.Blob.Bucket != DefaultBoltPath {
			t.Errorf("unexpected blob config: %+v", cfg.Blob)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing container key", func(c *Config) { c.ContainerKey = " " }, true},
		{"negative redis db", func(c *Config) { c.Redis.DB = -1 }, true},
		{"missing bucket", func(c *Config) { c.Blob.Bucket = "" }, true},
		{"unknown backend", func(c *Config) { c.Blob.Type = "ftp" }, true},
		{"s3 without region", func(c *Config) { c.Blob = BackendConfig{Type: "s3", Bucket: "b"} }, true},
		{"s3 with region", func(c *Config) { c.Blob = BackendConfig{Type: "s3", Bucket: "b", Region: "eu-west-1"} }, false},
		{"minio without endpoint", func(c *Config) { c.Blob = BackendConfig{Type: "minio", Bucket: "b"} }, true},
		{"gcs", func(c *Config) { c.Blob = BackendConfig{Type: "gcs", Bucket: "b"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
