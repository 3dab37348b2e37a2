// Package pack assembles processed sounds into a resource pack archive.
//
// PathLookup maps each content hash to the pack paths that use it. Assemble
// writes pack.mcmeta followed by one entry per path, sorted, into a temp file
// beside the target and renames it into place only after a successful sync.
// Builds that target the same archive are serialized with a lock file.
package pack
