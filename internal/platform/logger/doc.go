// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, plus a handler that stamps task and tenant identifiers
// carried in a context onto every record logged with that context.
package logger
