package guidestore

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Configuration constants
const (
	// File backend configuration
	DefaultFilePermissions = 0644
	DefaultDirPermissions  = 0755

	DefaultDataPath     = "./data"
	DefaultContainerKey = "db.json"
	DefaultRedisPrefix  = "guidestore"

	// How long the bolt backend waits for another process to release the file
	DefaultBoltTimeout = 2 * time.Second

	// Circuit breaker around the managed backend
	DefaultBreakerFailures = 5
	DefaultBreakerReset    = 30 * time.Second
)

// Config is the process-wide configuration read once at startup.
type Config struct {
	// Redis selects the managed document backend when Redis.Addr is set.
	Redis RedisConfig

	// Blob locates the container document used by the flat-file backend.
	Blob BackendConfig

	// ContainerKey is the object key of the container document inside Blob.
	ContainerKey string

	LogLevel string
}

// RedisConfig holds the managed backend connection parameters.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key namespace, defaults to DefaultRedisPrefix
}

// Enabled reports whether managed backend parameters are present.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// Options converts the config into go-redis client options.
func (c RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		// Failures surface immediately; the selector falls back instead.
		MaxRetries:  -1,
		DialTimeout: 2 * time.Second,
	}
}

// DefaultConfig returns a config selecting the filesystem backend under DefaultDataPath.
func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{Prefix: DefaultRedisPrefix},
		Blob: BackendConfig{
			Type:   "filesystem",
			Bucket: DefaultDataPath,
		},
		ContainerKey: DefaultContainerKey,
	}
}

// ConfigFromEnv builds a Config from GUIDESTORE_* environment variables.
//
// Environment variables read (with defaults):
//   - GUIDESTORE_REDIS_ADDR (unset: flat-file backend)
//   - GUIDESTORE_REDIS_PASSWORD, GUIDESTORE_REDIS_DB (0), GUIDESTORE_REDIS_PREFIX ("guidestore")
//   - GUIDESTORE_BACKEND ("filesystem"; also "bolt", "s3", "minio", "gcs")
//   - GUIDESTORE_DATA_PATH ("./data", filesystem only)
//   - GUIDESTORE_BOLT_PATH ("./data/guidestore.db", bolt only)
//   - GUIDESTORE_BUCKET, GUIDESTORE_REGION, GUIDESTORE_ENDPOINT
//   - GUIDESTORE_ACCESS_KEY, GUIDESTORE_SECRET_KEY, GUIDESTORE_USE_SSL
//   - GUIDESTORE_GCS_PROJECT, GUIDESTORE_GCS_CREDENTIALS
//   - GUIDESTORE_CONTAINER_KEY ("db.json")
//   - GUIDESTORE_LOG_LEVEL ("info")
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.Redis.Addr = os.Getenv("GUIDESTORE_REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("GUIDESTORE_REDIS_PASSWORD")
	cfg.Redis.DB = getEnvAsInt("GUIDESTORE_REDIS_DB", 0)
	cfg.Redis.Prefix = getEnv("GUIDESTORE_REDIS_PREFIX", DefaultRedisPrefix)

	cfg.Blob.Type = getEnv("GUIDESTORE_BACKEND", "filesystem")
	switch cfg.Blob.Type {
	case "filesystem":
		cfg.Blob.Bucket = getEnv("GUIDESTORE_DATA_PATH", DefaultDataPath)
	case "bolt":
		cfg.Blob.Bucket = getEnv("GUIDESTORE_BOLT_PATH", DefaultBoltPath)
	default:
		cfg.Blob.Bucket = os.Getenv("GUIDESTORE_BUCKET")
	}
	cfg.Blob.Region = os.Getenv("GUIDESTORE_REGION")
	cfg.Blob.Endpoint = os.Getenv("GUIDESTORE_ENDPOINT")
	cfg.Blob.AccessKeyID = os.Getenv("GUIDESTORE_ACCESS_KEY")
	cfg.Blob.SecretAccessKey = os.Getenv("GUIDESTORE_SECRET_KEY")
	cfg.Blob.UseSSL = getEnvAsBool("GUIDESTORE_USE_SSL", false)
	cfg.Blob.ProjectID = os.Getenv("GUIDESTORE_GCS_PROJECT")
	cfg.Blob.CredentialsFile = os.Getenv("GUIDESTORE_GCS_CREDENTIALS")

	cfg.ContainerKey = getEnv("GUIDESTORE_CONTAINER_KEY", DefaultContainerKey)
	cfg.LogLevel = os.Getenv("GUIDESTORE_LOG_LEVEL")

	return cfg
}

// Validate checks if the Config is valid
func (c Config) Validate() error {
	if strings.TrimSpace(c.ContainerKey) == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "ContainerKey",
			"reason": "container key is required",
		})
	}
	if c.Redis.DB < 0 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Redis.DB",
			"value":  c.Redis.DB,
			"reason": "must be non-negative",
		})
	}
	return c.Blob.Validate()
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvAsInt reads an integer environment variable with a default fallback.
func getEnvAsInt(key string, defaultVal int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultVal
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultVal
	}

	return value
}

func getEnvAsBool(key string, defaultVal bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return value
}
