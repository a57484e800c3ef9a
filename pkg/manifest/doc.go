// Package manifest models Cargo.toml dependency entries and the editing
// operations over them.
//
// The package has two halves. The dependency model ([Dependency],
// [Source]) captures the desired state of one entry independent of its
// formatting: tri-state fields distinguish "set explicitly" from "leave
// alone", and the three source kinds (registry, path, git) form a closed
// set. The manifest engine ([Manifest], [LocalManifest]) locates
// dependency-bearing sections, inserts or merges entries with the
// smallest possible diff, and keeps `[features]` references consistent
// when a dependency is removed.
//
// All mutation happens on a format-preserving document tree from
// [github.com/matzehuels/cratemod/pkg/tomledit], so comments, ordering,
// and whitespace of untouched entries survive a round trip.
package manifest
