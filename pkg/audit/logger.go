package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// ContextExtractor extracts string values from context.
// It returns (value, found) where found indicates if extraction succeeded.
type ContextExtractor func(context.Context) (string, bool)

// Logger records audit events into a Storage, filling tenant, actor and
// request identifiers from context.
type Logger struct {
	storage            Storage
	tenantIDExtractor  ContextExtractor
	actorIDExtractor   ContextExtractor
	requestIDExtractor ContextExtractor
	now                func() time.Time
}

// Option configures Logger behavior during initialization
type Option func(*Logger)

func WithTenantIDExtractor(fn ContextExtractor) Option {
	return func(l *Logger) {
		l.tenantIDExtractor = fn
	}
}

func WithActorIDExtractor(fn ContextExtractor) Option {
	return func(l *Logger) {
		l.actorIDExtractor = fn
	}
}

func WithRequestIDExtractor(fn ContextExtractor) Option {
	return func(l *Logger) {
		l.requestIDExtractor = fn
	}
}

// NewLogger creates a new audit logger
func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &Logger{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Log records a successful action
func (l *Logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	event := l.eventFromContext(ctx, action)
	event.Result = ResultSuccess

	return l.store(ctx, event, opts)
}

// LogError records a failed action
func (l *Logger) LogError(ctx context.Context, action string, err error, opts ...EventOption) error {
	event := l.eventFromContext(ctx, action)
	event.Result = ResultError
	if err != nil {
		event.Error = err.Error()
	}

	return l.store(ctx, event, opts)
}

func (l *Logger) store(ctx context.Context, event Event, opts []EventOption) error {
	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	return l.storage.Store(ctx, event)
}

func (l *Logger) eventFromContext(ctx context.Context, action string) Event {
	event := Event{
		ID:        uuid.New().String(),
		Action:    action,
		CreatedAt: l.now(),
	}

	if v, ok := extract(ctx, l.tenantIDExtractor); ok {
		event.TenantID = v
	}
	if v, ok := extract(ctx, l.actorIDExtractor); ok {
		event.ActorID = v
	}
	if v, ok := extract(ctx, l.requestIDExtractor); ok {
		event.RequestID = v
	}

	return event
}

func extract(ctx context.Context, fn ContextExtractor) (string, bool) {
	if fn == nil {
		return "", false
	}
	return fn(ctx)
}
