// Package logger builds *slog.Logger instances with context-aware attribute injection.
//
// New applies functional options (format, level, output, static attributes,
// environment presets) and wraps the handler so every registered
// ContextExtractor runs on each record. Registering
// tenant.LoggerExtractor makes every log line written under a request carry
// the tenant id and schema without call sites passing them.
//
//	log := logger.New(
//		logger.WithEnvironment(os.Getenv("APP_ENV"), "tenantd"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "schema provisioned", logger.Schema(name), logger.Duration(d))
package logger
