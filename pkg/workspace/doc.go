// Package workspace discovers cargo workspaces and cargo configuration.
//
// [Find] walks up from a manifest directory to the enclosing
// `[workspace]` root and enumerates its member packages, expanding the
// glob patterns cargo allows in `workspace.members`. The member list is
// what lets `add` turn a sibling crate's name into a
// `{ version, path }` dependency without touching the network.
//
// [HasRegistry] checks whether an alternate registry name is declared in
// a reachable `.cargo/config.toml`, mirroring cargo's config search
// order (ancestors of the working directory, then `$CARGO_HOME`).
package workspace
