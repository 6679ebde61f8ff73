package audit

// EventOption adjusts an Event before it is validated and stored.
type EventOption func(*Event)

// WithResource sets the resource type and id.
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

// WithMetadata sets one metadata entry.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithScope marks the blast radius of the action, e.g. "tenant" or "global".
func WithScope(scope string) EventOption {
	return func(e *Event) {
		e.Scope = scope
	}
}

// WithTenant overrides the tenant taken from context.
// Provisioning runs before the tenant is bound to any request.
func WithTenant(id string) EventOption {
	return func(e *Event) {
		e.TenantID = id
	}
}

// WithResult sets the event result
func WithResult(result Result) EventOption {
	return func(e *Event) {
		e.Result = result
	}
}
