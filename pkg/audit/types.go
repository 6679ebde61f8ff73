package audit

import (
	"errors"
	"time"
)

// ErrInvalidEvent is returned by Log and LogError for events that cannot be stored.
var ErrInvalidEvent = errors.New("audit: invalid event")

// Result is the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure" // completed with partial failures
	ResultError   Result = "error"   // did not complete
)

// Event is one audit record. TenantID is empty for actions outside any tenant;
// Scope is "global" for cross-tenant administrative actions.
type Event struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Result     Result         `json:"result"`
	TenantID   string         `json:"tenant_id,omitempty"`
	Scope      string         `json:"scope,omitempty"`
	ActorID    string         `json:"actor_id,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Resource   string         `json:"resource,omitempty"`
	ResourceID string         `json:"resource_id,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate requires an action and a known result.
func (e *Event) Validate() error {
	if e.Action == "" {
		return errors.Join(ErrInvalidEvent, errors.New("action is required"))
	}
	switch e.Result {
	case ResultSuccess, ResultFailure, ResultError:
		return nil
	default:
		return errors.Join(ErrInvalidEvent, errors.New("unknown result "+string(e.Result)))
	}
}
