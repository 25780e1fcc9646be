// Package logger builds configured slog loggers for the billing service.
//
// The factory wires format (JSON for production aggregation, text for
// development), level, static service attributes, and context extractors
// that inject request-scoped values such as the correlation id into every
// log record.
package logger
