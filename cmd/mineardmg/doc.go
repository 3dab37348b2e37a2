// Package main hosts the mineardmg CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, then
// hands off to internal/workflow for builds, internal/manifest for version
// listings and internal/preflight for environment checks. Commands print
// tables to stdout; logs and the progress bar go to stderr.
package main
