// Package logging builds the slog loggers used across enrichd.
//
// Two output formats are supported: a compact single-line console format for
// interactive use and JSON for log shippers. Loggers write to stdout and,
// when a log directory is configured, to enrichd.log inside it. Components
// tag themselves with WithComponent so the console format can prefix
// messages consistently.
package logging
