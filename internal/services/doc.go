// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp content hashes, stage names, worker indices,
//     and build run identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures as
//     network, decode, encode, or packaging problems so callers can classify
//     them with errors.Is.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// classification, observability) stays uniform across the pipeline.
package services
