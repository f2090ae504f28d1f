// Package logging constructs the slog loggers used throughout quire and
// provides the standardized attribute helpers shared by the CLI and the
// download pipeline.
package logging
