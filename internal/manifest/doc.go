// Package manifest reads the launcher metadata that describes a game version:
// the version list, the per-version client manifest, the asset index, and the
// client jar's version.json.
//
// Client downloads JSON documents over HTTP; the selection helpers decide
// which version to build and which asset objects are sounds.
package manifest
