// Package vcs fetches Cargo manifests from git repositories.
//
// Dependencies declared with a `git` source have no registry entry to
// consult, so crate metadata (package name, version, feature list) comes
// from the repository's root Cargo.toml instead. [Fetcher] clones the
// repository at the requested branch, tag, or revision into a temporary
// directory, reads the manifest, and throws the clone away.
//
// Manifest text is cached keyed by repository URL and ref, so repeated
// lookups of the same dependency skip the network entirely.
//
//	fetcher := vcs.NewFetcher(backend, 24*time.Hour)
//	m, err := fetcher.FetchCrate(ctx, url, src.Ref(), false)
package vcs
