package guidestore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Open selects and initializes the backend described by cfg and returns a
// Store over it.
//
// With Redis configured, Open connects, pings and registers the
// collections. If any of that fails the error is logged at warn level and
// Open continues with the flat-file store; a Redis problem is never
// returned to the caller. The flat-file store creates its container when
// missing and fails with ErrInvalidData when the existing one is malformed.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := NewStore(nil, opts...)

	if cfg.Redis.Enabled() {
		docs, err := openRedis(ctx, cfg.Redis)
		if err == nil {
			s.docs = docs
			s.logger.Info("document store selected",
				"backend", KindRedis,
				"addr", cfg.Redis.Addr,
				"prefix", docs.prefix,
			)
			return s, nil
		}
		s.metrics.Increment(MetricBackendFallback)
		s.logger.Warn("redis unavailable, falling back to flat-file store",
			"addr", cfg.Redis.Addr,
			"error", err,
		)
	}

	docs, err := openFile(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.docs = docs
	s.logger.Info("document store selected",
		"backend", KindFile,
		"blob", cfg.Blob.Type,
		"container", cfg.ContainerKey,
	)
	return s, nil
}

func openRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(cfg.Options())
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	docs := NewRedisStore(client, cfg.Prefix)
	if err := docs.EnsureCollections(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return docs, nil
}

func openFile(ctx context.Context, cfg Config) (*FileStore, error) {
	backend, err := NewBackend(ctx, cfg.Blob)
	if err != nil {
		return nil, err
	}

	docs := NewFileStore(backend, cfg.ContainerKey)
	if err := docs.Init(ctx); err != nil {
		backend.Close()
		return nil, err
	}
	return docs, nil
}
