package guidestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// DefaultBoltPath is the database file used when the bolt backend is
// selected without an explicit path.
const DefaultBoltPath = "./data/guidestore.db"

var boltBucket = []byte("containers")

// BoltBackend keeps container documents in a single bbolt database file.
// Unlike the plain filesystem backend, a bolt file is locked by the
// process that opened it, so a second process fails at startup instead of
// racing on writes.
type BoltBackend struct {
	db *bbolt.DB
}

// NewBoltBackend opens (or creates) the database file at path.
func NewBoltBackend(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create bolt directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: DefaultBoltTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (b *BoltBackend) Put(ctx context.Context, key string, data []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), data)
	})
}

func (b *BoltBackend) Exists(ctx context.Context, key string) (bool, error) {
	exists := false
	err := b.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(boltBucket).Get([]byte(key)) != nil
		return nil
	})
	return exists, err
}

func (b *BoltBackend) Ping(ctx context.Context) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(boltBucket) == nil {
			return fmt.Errorf("bucket %s missing", boltBucket)
		}
		return nil
	})
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
