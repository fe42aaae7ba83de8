package guidestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestBackendCompliance runs the same test suite against all Backend implementations
func TestBackendCompliance(t *testing.T) {
	ctx := context.Background()

	bolt, err := NewBoltBackend(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBoltBackend failed: %v", err)
	}
	defer bolt.Close()

	backends := []struct {
		name    string
		backend Backend
	}{
		{name: "Filesystem", backend: NewFilesystemBackend(t.TempDir())},
		{name: "Bolt", backend: bolt},
		// S3 and MinIO run the same suite in TestIntegration_S3Backend_MinIO
	}

	for _, tc := range backends {
		t.Run(tc.name, func(t *testing.T) {
			runBackendComplianceTests(t, ctx, tc.backend)
		})
	}
}

func runBackendComplianceTests(t *testing.T, ctx context.Context, backend Backend) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := backend.Get(ctx, "missing/db.json")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
		exists, err := backend.Exists(ctx, "missing/db.json")
		if err != nil || exists {
			t.Errorf("Exists(missing) = %v, %v", exists, err)
		}
	})

	t.Run("PutGetOverwrite", func(t *testing.T) {
		key := "compliance/db.json"
		if err := backend.Put(ctx, key, []byte(`{"users":[]}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		exists, err := backend.Exists(ctx, key)
		if err != nil || !exists {
			t.Fatalf("Exists = %v, %v", exists, err)
		}

		if err := backend.Put(ctx, key, []byte(`{"users":[{"id":"u1"}]}`)); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}
		got, err := backend.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"users":[{"id":"u1"}]}` {
			t.Errorf("Get = %s", got)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := backend.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

func TestFilesystemBackend_Specific(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	backend := NewFilesystemBackend(baseDir)

	t.Run("NestedKeys", func(t *testing.T) {
		if err := backend.Put(ctx, "nested/dir/db.json", []byte(`{}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(baseDir, "nested", "dir", "db.json")); err != nil {
			t.Errorf("file not created at expected path: %v", err)
		}
	})

	t.Run("NoTempFileLeftBehind", func(t *testing.T) {
		if err := backend.Put(ctx, "db.json", []byte(`{}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(baseDir, "db.json.tmp")); !os.IsNotExist(err) {
			t.Error("temp file should be renamed away")
		}
	})

	t.Run("PingMissingDir", func(t *testing.T) {
		missing := NewFilesystemBackend(filepath.Join(baseDir, "does-not-exist"))
		if err := missing.Ping(ctx); err == nil {
			t.Error("expected Ping to fail for a missing directory")
		}
	})

	t.Run("PingNotADirectory", func(t *testing.T) {
		file := filepath.Join(baseDir, "plain-file")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := NewFilesystemBackend(file).Ping(ctx); err == nil {
			t.Error("expected Ping to fail when base path is a file")
		}
	})
}

func TestBoltBackend_Specific(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.db")

	b, err := NewBoltBackend(path)
	if err != nil {
		t.Fatalf("NewBoltBackend failed: %v", err)
	}
	if err := b.Put(ctx, "db.json", []byte(`{"users":[]}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	t.Run("SurvivesReopen", func(t *testing.T) {
		b, err := NewBoltBackend(path)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer b.Close()

		got, err := b.Get(ctx, "db.json")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"users":[]}` {
			t.Errorf("Get = %s", got)
		}
	})

	t.Run("FileStoreRoundTrip", func(t *testing.T) {
		b, err := NewBoltBackend(filepath.Join(t.TempDir(), "fs.db"))
		if err != nil {
			t.Fatalf("NewBoltBackend failed: %v", err)
		}
		defer b.Close()

		fs := NewFileStore(b, DefaultContainerKey)
		if err := fs.Init(ctx); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if err := fs.AppendFeedback(ctx, Feedback{Name: "sam", Request: "iPad 9"}); err != nil {
			t.Fatalf("AppendFeedback failed: %v", err)
		}
		feedback, err := fs.Feedback(ctx)
		if err != nil || len(feedback) != 1 {
			t.Fatalf("Feedback = %v, %v", feedback, err)
		}
	})
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("filesystem", func(t *testing.T) {
		backend, err := NewBackend(ctx, BackendConfig{Type: "filesystem", Bucket: t.TempDir()})
		if err != nil {
			t.Fatalf("NewBackend failed: %v", err)
		}
		if _, ok := backend.(*FilesystemBackend); !ok {
			t.Errorf("expected *FilesystemBackend, got %T", backend)
		}
	})

	t.Run("bolt", func(t *testing.T) {
		b, err := NewBackend(ctx, BackendConfig{Type: "bolt", Bucket: filepath.Join(t.TempDir(), "store.db")})
		if err != nil {
			t.Fatalf("NewBackend(bolt) failed: %v", err)
		}
		defer b.Close()
		if _, ok := b.(*BoltBackend); !ok {
			t.Errorf("got %T, want *BoltBackend", b)
		}
	})

	t.Run("minio", func(t *testing.T) {
		backend, err := NewBackend(ctx, BackendConfig{
			Type:     "minio",
			Bucket:   "guides",
			Endpoint: "localhost:9000",
		})
		if err != nil {
			t.Fatalf("NewBackend failed: %v", err)
		}
		if _, ok := backend.(*S3Backend); !ok {
			t.Errorf("expected *S3Backend, got %T", backend)
		}
	})

	t.Run("s3 with endpoint", func(t *testing.T) {
		backend, err := NewBackend(ctx, BackendConfig{
			Type:            "s3",
			Bucket:          "guides",
			Region:          "eu-west-1",
			Endpoint:        "http://localhost:4566",
			AccessKeyID:     "test",
			SecretAccessKey: "test",
		})
		if err != nil {
			t.Fatalf("NewBackend failed: %v", err)
		}
		if _, ok := backend.(*S3Backend); !ok {
			t.Errorf("expected *S3Backend, got %T", backend)
		}
	})

	invalid := []BackendConfig{
		{},
		{Type: "filesystem"},
		{Type: "s3", Bucket: "guides"},
		{Type: "minio", Bucket: "guides"},
		{Type: "ftp", Bucket: "guides"},
	}
	for _, cfg := range invalid {
		if _, err := NewBackend(ctx, cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("NewBackend(%+v) error = %v, want ErrInvalidConfig", cfg, err)
		}
	}
}
