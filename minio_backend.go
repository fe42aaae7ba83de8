package guidestore

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MinIOConfig contains MinIO-specific configuration
type MinIOConfig struct {
	Endpoint        string // e.g., "localhost:9000" or "minio.example.com"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Bucket          string
}

// NewMinIOBackend creates a new MinIO backend.
// MinIO speaks the S3 API, so this is an S3Backend with path-style addressing.
func NewMinIOBackend(cfg MinIOConfig) (Backend, error) {
	return NewS3Backend(newMinIOClient(cfg), cfg.Bucket), nil
}

func newMinIOClient(cfg MinIOConfig) *s3.Client {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)

	return s3.New(s3.Options{
		BaseEndpoint: aws.String(endpoint),
		Region:       "us-east-1", // MinIO doesn't enforce regions, but SDK requires it
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true, // http://host/bucket/key
	})
}
