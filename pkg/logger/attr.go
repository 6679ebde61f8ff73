package logger

import (
	"log/slog"
	"time"
)

// Error records err under the key "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records the tenant identifier under "tenant_id".
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tenant_id", id)
}

// Schema records a database schema name.
func Schema(name string) slog.Attr {
	return slog.String("schema", name)
}

// Scope marks whether an operation is tenant-scoped or global.
func Scope(scope string) slog.Attr {
	return slog.String("scope", scope)
}

// Duration records d in milliseconds under "duration_ms".
func Duration(d time.Duration) slog.Attr {
	return slog.Int64("duration_ms", d.Milliseconds())
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

func Pattern(p string) slog.Attr {
	return slog.String("pattern", p)
}

func Count(name string, n int) slog.Attr {
	return slog.Int(name, n)
}
