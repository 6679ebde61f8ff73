package provision

import "time"

type Config struct {
	// SlowThreshold is the soft budget: a successful attempt that took longer logs a warning.
	SlowThreshold time.Duration `env:"PROVISION_SLOW_THRESHOLD" envDefault:"30s"`
	// CleanupTimeout bounds the schema drop after a failure.
	CleanupTimeout time.Duration `env:"PROVISION_CLEANUP_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig mirrors the env defaults.
func DefaultConfig() Config {
	return Config{
		SlowThreshold:  30 * time.Second,
		CleanupTimeout: 30 * time.Second,
	}
}
