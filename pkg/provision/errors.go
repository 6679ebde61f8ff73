package provision

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrProvisionFailed marks every failed provisioning attempt.
	ErrProvisionFailed = errors.New("tenant provisioning failed")

	// ErrInvalidTenant is returned for the nil tenant id.
	ErrInvalidTenant = errors.New("invalid tenant id")

	// ErrInvalidTransition reports an illegal lifecycle transition.
	ErrInvalidTransition = errors.New("invalid provisioning transition")
)

// ProvisionError describes a failed provisioning attempt. Err is the root cause;
// CleanupErr is set when dropping the partially built schema also failed.
type ProvisionError struct {
	TenantID   uuid.UUID
	Schema     string
	Stage      Stage // stage reached before the failure
	Err        error
	CleanupErr error
}

func (e *ProvisionError) Error() string {
	msg := fmt.Sprintf("provision tenant %s (schema %s) failed after %s: %v", e.TenantID, e.Schema, e.Stage, e.Err)
	if e.CleanupErr != nil {
		msg += fmt.Sprintf("; cleanup failed: %v", e.CleanupErr)
	}
	return msg
}

func (e *ProvisionError) Unwrap() []error {
	errs := []error{ErrProvisionFailed, e.Err}
	if e.CleanupErr != nil {
		errs = append(errs, e.CleanupErr)
	}
	return errs
}
