// Package logger provides log/slog attribute helpers shared across the
// client core. Helpers return an empty slog.Attr for absent values so
// call sites never need nil checks.
package logger
