// Package workflow runs a complete build: it resolves the game version,
// downloads launcher metadata, selects the sounds, checks the environment,
// drives the processing pipeline and assembles the resource pack.
//
// Each Build call gets its own run id (attached to every log line through
// the context) and its own work queue and result map; nothing is shared
// between builds except the optional CDN rate limiter owned by the Builder.
package workflow
