package redis

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL, set REDIS_URL")
	ErrInvalidURL         = errors.New("redis: invalid connection URL")
	ErrNotReady           = errors.New("redis: server not ready")
	ErrUnhealthy          = errors.New("redis: healthcheck failed")
)

// DeleteError reports the keys of a Delete call whose UNLINK failed.
// Keys that did not exist are not failures.
type DeleteError struct {
	Failed int
	Err    error // first command error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("redis: %d key deletes failed: %v", e.Failed, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// FailedKeys implements tenantcache.PartialDeleteError.
func (e *DeleteError) FailedKeys() int {
	return e.Failed
}
