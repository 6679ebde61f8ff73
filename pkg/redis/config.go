package redis

import "time"

// Config is populated from REDIS_* environment variables.
type Config struct {
	// ConnectionURL has the form redis://:password@host:6379/0.
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	// ScanBatchSize is the COUNT hint for SCAN when enumerating keys for eviction.
	ScanBatchSize int64 `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`
}
