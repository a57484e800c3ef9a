// Package io handles reading and writing manifest text on disk.
//
// The package is the file-system boundary of cratemod: everything above
// it operates on in-memory text and document trees. Reads return the
// manifest contents as a string; writes are atomic (temp file plus
// rename in the target directory) so an interrupted command never
// leaves a half-written Cargo.toml behind.
//
// # Usage
//
//	text, err := io.ReadManifest("Cargo.toml")
//	// ... mutate the parsed document ...
//	err = io.WriteManifest("Cargo.toml", updated)
//
// [FindManifest] locates the nearest Cargo.toml by walking up from a
// starting directory, mirroring how cargo finds the active package.
package io
