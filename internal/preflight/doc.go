// Package preflight provides readiness checks run before a build starts
// downloading sounds.
//
// The build workflow calls RunAll once per build and refuses to start when a
// check fails, so a missing encoder or a full disk is reported before any
// network traffic. The CLI "deps" command renders the same results as a
// table.
package preflight
