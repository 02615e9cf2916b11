// Package logging provides slog construction and shared attribute helpers
// for the build pipeline. Console output is a compact single-line format;
// JSON output is available for machine consumption.
package logging
