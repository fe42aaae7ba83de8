package guidestore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Backend is the blob storage the flat-file document store keeps its
// container document in. The same container layout works on local disk,
// S3, MinIO or GCS.
type Backend interface {
	// Get returns ErrNotFound when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)

	// Health check
	Ping(ctx context.Context) error

	// Resource cleanup
	Close() error
}

// BackendConfig holds configuration for any blob backend
type BackendConfig struct {
	Type            string // "filesystem", "bolt", "s3", "minio", "gcs"
	Bucket          string // bucket name, base directory for filesystem, database file for bolt
	Region          string // AWS region (s3 only)
	Endpoint        string // custom endpoint (s3-compatible services, minio host:port)
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool   // minio only
	ProjectID       string // gcs only
	CredentialsFile string // gcs service account file, ADC when empty
}

// Validate checks if the BackendConfig is valid
func (c BackendConfig) Validate() error {
	if c.Type == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Type",
			"reason": "backend type is required",
		})
	}
	if c.Bucket == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Bucket",
			"reason": "bucket/base path is required",
		})
	}

	switch c.Type {
	case "s3":
		if c.Region == "" && c.Endpoint == "" {
			return WithContext(ErrInvalidConfig, map[string]interface{}{
				"field":  "Region/Endpoint",
				"reason": "S3 backend requires either Region or Endpoint",
			})
		}
	case "minio":
		if c.Endpoint == "" {
			return WithContext(ErrInvalidConfig, map[string]interface{}{
				"field":  "Endpoint",
				"reason": "MinIO backend requires an endpoint",
			})
		}
	case "filesystem", "bolt", "gcs":
	default:
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Type",
			"value":  c.Type,
			"reason": "unknown backend type",
		})
	}

	return nil
}

// NewBackend builds the blob backend described by cfg.
func NewBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "s3":
		return newS3BackendFromConfig(ctx, cfg)
	case "minio":
		return NewMinIOBackend(MinIOConfig{
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UseSSL:          cfg.UseSSL,
			Bucket:          cfg.Bucket,
		})
	case "bolt":
		return NewBoltBackend(cfg.Bucket)
	case "gcs":
		return NewGCSBackend(ctx, GCSConfig{
			ProjectID:       cfg.ProjectID,
			Bucket:          cfg.Bucket,
			CredentialsFile: cfg.CredentialsFile,
		})
	default:
		return NewFilesystemBackend(cfg.Bucket), nil
	}
}

func newS3BackendFromConfig(ctx context.Context, cfg BackendConfig) (Backend, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3Backend(client, cfg.Bucket), nil
}
