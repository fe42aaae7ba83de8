package guidestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemBackend implements Backend using local filesystem
type FilesystemBackend struct {
	basePath string
}

// NewFilesystemBackend creates a new filesystem backend rooted at basePath
func NewFilesystemBackend(basePath string) *FilesystemBackend {
	return &FilesystemBackend{basePath: basePath}
}

func (b *FilesystemBackend) getPath(key string) string {
	return filepath.Join(b.basePath, filepath.FromSlash(key))
}

func (b *FilesystemBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.getPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		if os.IsPermission(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return data, nil
}

// Put writes to a temp file and renames it over the target so readers never
// see a half-written container.
func (b *FilesystemBackend) Put(ctx context.Context, key string, data []byte) error {
	path := b.getPath(key)
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, DefaultFilePermissions); err != nil {
		if os.IsPermission(err) {
			return ErrUnauthorized
		}
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (b *FilesystemBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(b.getPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *FilesystemBackend) Ping(ctx context.Context) error {
	// Check if base directory exists and is writable
	info, err := os.Stat(b.basePath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("base path is not a directory: %s", b.basePath)
	}

	testFile := filepath.Join(b.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), DefaultFilePermissions); err != nil {
		return fmt.Errorf("cannot write to base path: %w", err)
	}
	os.Remove(testFile)

	return nil
}

func (b *FilesystemBackend) Close() error {
	return nil
}
