package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrBucketRequired is returned by Load/LoadFromEnv when no storage bucket is
// configured. Startup must treat this as fatal: the Object Store Adapter has
// no backing store to operate against.
var ErrBucketRequired = errors.New("config: storage bucket must be set")

// Config holds all configuration for the ingestion service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// ServerConfig holds HTTP server configuration for the Job Control API.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container-environment detection.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// StorageConfig holds Object Store Adapter configuration.
type StorageConfig struct {
	Type       string `yaml:"type"` // "s3" or "local"
	LocalPath  string `yaml:"local_path"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	AWSProfile string `yaml:"aws_profile"` // empty uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override.
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// DatabaseConfig holds the Job Store / Datastore connection.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifeMins int    `yaml:"conn_max_life_minutes"`
}

// RedisConfig holds the chunk-manifest / lock backend connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// IngestConfig holds pipeline tuning knobs.
type IngestConfig struct {
	MinChunkSizeBytes  int64 `yaml:"min_chunk_size_bytes"`
	MaxChunkSizeBytes  int64 `yaml:"max_chunk_size_bytes"`
	BatchSize          int   `yaml:"batch_size"`
	ProgressIntervalMs int   `yaml:"progress_interval_ms"`
	LockTTLSeconds      int  `yaml:"lock_ttl_seconds"`
	MaxRetryAttempts    int  `yaml:"max_retry_attempts"`
	StrictCleaning      bool `yaml:"strict_cleaning"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if cfg.Storage.Bucket == "" {
		return nil, ErrBucketRequired
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("INGEST_S3_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("INGEST_S3_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("AWS_PROFILE"); v != "" {
		cfg.Storage.AWSProfile = v
	}

	if cfg.Storage.Bucket == "" {
		return nil, ErrBucketRequired
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "s3"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-west-2"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 50
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.ConnMaxLifeMins == 0 {
		cfg.Database.ConnMaxLifeMins = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Ingest.MinChunkSizeBytes == 0 {
		cfg.Ingest.MinChunkSizeBytes = 1 << 20 // 1MB
	}
	if cfg.Ingest.MaxChunkSizeBytes == 0 {
		cfg.Ingest.MaxChunkSizeBytes = 50 << 20 // 50MB
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 2000
	}
	if cfg.Ingest.ProgressIntervalMs == 0 {
		cfg.Ingest.ProgressIntervalMs = 2000
	}
	if cfg.Ingest.LockTTLSeconds == 0 {
		cfg.Ingest.LockTTLSeconds = 30
	}
	if cfg.Ingest.MaxRetryAttempts == 0 {
		cfg.Ingest.MaxRetryAttempts = 3
	}
}

// ConnMaxLife returns the database connection max lifetime as a duration.
func (c DatabaseConfig) ConnMaxLife() time.Duration {
	return time.Duration(c.ConnMaxLifeMins) * time.Minute
}

// ProgressInterval returns the progress-persistence interval as a duration.
func (c IngestConfig) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalMs) * time.Millisecond
}

// LockTTL returns the distributed lock TTL as a duration.
func (c IngestConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}
