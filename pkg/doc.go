// Package pkg provides the core libraries for cratemod's Cargo.toml editing.
//
// # Overview
//
// cratemod adds, merges, and removes dependencies in Cargo.toml files while
// preserving the formatting, comments, and ordering of everything it does
// not touch. The pkg directory is organized into three main areas:
//
//  1. Manifest model - parsing and format-preserving editing
//  2. Resolution - registry, git, and workspace lookups
//  3. Infrastructure - caching, errors, logging hooks
//
// # Architecture
//
// The typical data flow through cratemod:
//
//	Cargo.toml text
//	         ↓
//	    [tomledit] package (lossless TOML tree)
//	         ↓
//	    [manifest] package (dependency model + section operations)
//	         ↓
//	    [integrations/crates], [vcs], [workspace] (source resolution)
//	         ↓
//	    updated Cargo.toml text
//
// # Quick Start
//
// Add a dependency to a manifest:
//
//	import (
//	    "github.com/matzehuels/cratemod/pkg/manifest"
//	)
//
//	// 1. Load the manifest (format-preserving)
//	m, _ := manifest.Load("Cargo.toml")
//
//	// 2. Build the dependency
//	dep := manifest.NewDependency("serde")
//	dep.Source = manifest.NewRegistrySource("1.0.219")
//	dep.Features = []string{"derive"}
//
//	// 3. Insert or merge, then write back
//	m.InsertIntoTable([]string{"dependencies"}, dep)
//	m.Write()
//
// # Main Packages
//
// [tomledit] - Lossless TOML document model. Every byte of the input that
// is not explicitly edited survives a parse/render round trip: comments,
// blank lines, key order, and value formatting all stay put.
//
// [manifest] - The Cargo.toml domain model. Dependency with its Source
// variants (registry, path, git), section discovery including per-target
// tables, insert-or-merge semantics, and feature-reference cleanup when
// dependencies are removed.
//
// [integrations] - HTTP client infrastructure for registry APIs, with the
// crates.io client in [integrations/crates]: version resolution against
// cargo requirement syntax and feature discovery.
//
// [vcs] - Git dependency support: clones a repository at a branch, tag, or
// revision and reads its manifest for feature discovery.
//
// [workspace] - Cargo workspace discovery (member globs, exclusions) and
// .cargo/config.toml registry lookup.
//
// [cache] - Cache backends shared by the registry and git clients: file,
// Redis, null, and namespaced wrappers, plus deterministic key builders.
//
// [errors] - Coded errors with user-facing messages, used across the
// module so the CLI can classify failures without string matching.
//
// [observability] - Hook interfaces for manifest, cache, and HTTP events.
// Libraries emit events; the CLI attaches a logger.
//
// [io] - Manifest file discovery and atomic writes.
//
// [httputil] - HTTP retry with exponential backoff.
//
// [buildinfo] - Version metadata injected at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/manifest/...   # Specific package
//	go test -run Example         # Examples only
//
// [tomledit]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/tomledit
// [manifest]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/manifest
// [integrations]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/integrations
// [integrations/crates]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/integrations/crates
// [vcs]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/vcs
// [workspace]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/workspace
// [cache]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/observability
// [io]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/io
// [httputil]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/cratemod/pkg/buildinfo
package pkg
