package config

import (
	"errors"
	"time"
)

// StorageBackend selects the storage adapter.
type StorageBackend string

const (
	StorageLocal StorageBackend = "local"
	StorageS3    StorageBackend = "s3"
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Config{} and override only what they need.
type Config struct {
	// Worker pool controls.
	WorkerCount int // default: runtime.NumCPU()
	QueueSize   int // max queued jobs before backpressure; default: 256
	JobTimeout  time.Duration

	// Retry for transient step failures (network fetch, storage).
	MaxRetries int
	RetryDelay time.Duration

	// Fetching.
	FetchTimeout  time.Duration // per-request deadline; default 120s
	MaxImageBytes int64         // carrier image size ceiling; 0 = no limit
	ChunkSize     int           // streaming chunk size in bytes; default 32 KiB

	// Storage.
	Storage StorageBackend
	Local   LocalConfig
	S3      S3Config

	// Retention of extracted files.
	Retention     time.Duration // age after which stored files expire; default 24h
	SweepInterval time.Duration // janitor wake-up period; default 1h

	// HTTP server.
	ListenAddr string // default ":5000"

	// Logging.
	LogLevel string // "debug", "info", "warn", "error"
}

// LocalConfig configures the local filesystem storage adapter.
type LocalConfig struct {
	RootDir     string // default "output"
	Permissions uint32 // default 0644
}

// S3Config configures the S3-compatible storage adapter.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional custom endpoint (MinIO, etc.)
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Default returns a Config populated with sensible production defaults.
// The retention window and fetch timeout mirror the service's operational
// contract: extracted files live for 24 hours, remote carriers may be slow.
func Default() Config {
	return Config{
		WorkerCount:   0, // resolved at runtime to NumCPU
		QueueSize:     256,
		JobTimeout:    5 * time.Minute,
		MaxRetries:    3,
		RetryDelay:    200 * time.Millisecond,
		FetchTimeout:  120 * time.Second,
		MaxImageBytes: 256 * 1024 * 1024,
		ChunkSize:     32 * 1024,
		Storage:       StorageLocal,
		Local: LocalConfig{
			RootDir: "output",
		},
		Retention:     24 * time.Hour,
		SweepInterval: time.Hour,
		ListenAddr:    ":5000",
		LogLevel:      "info",
	}
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("config: FetchTimeout must be positive")
	}
	if c.Retention <= 0 {
		return errors.New("config: Retention must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("config: SweepInterval must be positive")
	}
	if c.Storage != StorageLocal && c.Storage != StorageS3 {
		return errors.New("config: Storage must be local or s3")
	}
	return nil
}
