// Package logging builds the process-wide slog logger and the structured
// attribute helpers shared by every scribe component. Console output uses a
// compact key=value handler; JSON output is available for log shipping. The
// package also carries the progress sampler that keeps per-job progress
// logging bounded.
package logging
