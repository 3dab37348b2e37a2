// Package logging assembles structured slog loggers and formatting helpers used
// across mineardmg.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so worker code can tag log lines
// with run ids, content hashes, stages, and worker ids. The package also
// provides a no-op logger for tests and a progress sampler that keeps batch
// progress logs to one line per bucket.
package logging
