package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/cratemod/pkg/errors"
	"github.com/matzehuels/cratemod/pkg/manifest"
)

func newTestDep(t *testing.T, name string, features []string, available map[string][]string) *manifest.Dependency {
	t.Helper()
	dep := manifest.NewDependency(name)
	dep.Features = features
	dep.AvailableFeatures = available
	return dep
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
}

// newAppManifest writes a minimal package manifest and returns its path.
func newAppManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Cargo.toml")
	writeFixture(t, path, `[package]
name = "app"
version = "0.1.0"

[dependencies]
anyhow = "1.0"
`)
	return path
}

// isolateEnv keeps tests away from the user's cache and cargo config.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CRATEMOD_CACHE", "off")
	t.Setenv("CARGO_HOME", filepath.Join(t.TempDir(), ".cargo"))
}

func readManifest(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	return string(data)
}

func TestValidateAddArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		opts    addOptions
		wantErr string
	}{
		{name: "plain", args: []string{"serde"}},
		{name: "dev and build", args: []string{"serde"}, opts: addOptions{dev: true, build: true},
			wantErr: "cannot specify both --dev and --build"},
		{name: "optional pair", args: []string{"serde"}, opts: addOptions{optional: true, noOptional: true},
			wantErr: "cannot specify both --optional and --no-optional"},
		{name: "default features pair", args: []string{"serde"}, opts: addOptions{defaultFeatures: true, noDefaultFeatures: true},
			wantErr: "cannot specify both --default-features and --no-default-features"},
		{name: "git and path", args: []string{"serde"}, opts: addOptions{git: "u", path: "p"},
			wantErr: "cannot specify both --git and --path"},
		{name: "git and registry", args: []string{"serde"}, opts: addOptions{git: "u", registry: "r"},
			wantErr: "cannot specify both --git and --registry"},
		{name: "registry and path", args: []string{"serde"}, opts: addOptions{registry: "r", path: "p"},
			wantErr: "cannot specify both --registry and --path"},
		{name: "two git refs", args: []string{"serde"}, opts: addOptions{git: "u", branch: "b", tag: "t"},
			wantErr: "cannot specify more than one of --branch, --tag and --rev"},
		{name: "ref without git", args: []string{"serde"}, opts: addOptions{branch: "b"},
			wantErr: "--branch, --tag and --rev require --git"},
		{name: "multi crate rename", args: []string{"a", "b"}, opts: addOptions{rename: "x"},
			wantErr: "cannot add multiple crates with --rename"},
		{name: "multi crate git", args: []string{"a", "b"}, opts: addOptions{git: "u"},
			wantErr: "cannot add multiple crates from the same git repository"},
		{name: "no crates", args: nil,
			wantErr: "no crates specified"},
		{name: "no crates but path", args: nil, opts: addOptions{path: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAddArgs(tt.args, &tt.opts)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validateAddArgs() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(errors.UserMessage(err), tt.wantErr) {
				t.Errorf("validateAddArgs() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestAddOfflineWithRequirement(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true}
	if err := runAdd(context.Background(), []string{"serde@1.0"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	if !strings.Contains(got, "serde = \"1.0\"") {
		t.Errorf("manifest missing added dependency:\n%s", got)
	}
	if !strings.Contains(got, "anyhow = \"1.0\"") {
		t.Errorf("existing dependency lost:\n%s", got)
	}
}

func TestAddOfflineBareNameFails(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true}
	err := runAdd(context.Background(), []string{"serde"}, opts)
	if errors.GetCode(err) != errors.ErrCodeNetwork {
		t.Errorf("runAdd() error = %v, want NETWORK_ERROR", err)
	}
}

func TestAddOfflineBareNameReusesKnownVersion(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "Cargo.toml")
	writeFixture(t, path, `[package]
name = "app"
version = "0.1.0"

[dev-dependencies]
serde = "1.0.100"
`)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true}
	if err := runAdd(context.Background(), []string{"serde"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	if !strings.Contains(got, "[dependencies]\nserde = \"1.0.100\"") {
		t.Errorf("expected version reuse from dev-dependencies:\n%s", got)
	}
}

func TestAddDevSection(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, dev: true}
	if err := runAdd(context.Background(), []string{"tempfile@3"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	if !strings.Contains(got, "[dev-dependencies]\ntempfile = \"3\"") {
		t.Errorf("manifest missing dev-dependencies entry:\n%s", got)
	}
}

func TestAddTargetSection(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, target: "cfg(unix)"}
	if err := runAdd(context.Background(), []string{"libc@0.2"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	if !strings.Contains(got, "[target.'cfg(unix)'.dependencies]\nlibc = \"0.2\"") {
		t.Errorf("manifest missing per-target section:\n%s", got)
	}
}

func TestAddOptionalInlineTable(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, optional: true}
	if err := runAdd(context.Background(), []string{"serde@1.0"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	if !strings.Contains(got, "serde = { version = \"1.0\", optional = true }") {
		t.Errorf("manifest missing optional inline table:\n%s", got)
	}
}

func TestAddRename(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, rename: "serde1"}
	if err := runAdd(context.Background(), []string{"serde@1.0"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	if !strings.Contains(got, "serde1 = { version = \"1.0\", package = \"serde\" }") {
		t.Errorf("manifest missing renamed dependency:\n%s", got)
	}
}

func TestAddGitOffline(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{
		manifestPath: path, offline: true, quiet: true,
		git: "https://example.com/repo.git", branch: "dev",
	}
	if err := runAdd(context.Background(), []string{"gitdep"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	if !strings.Contains(got, "gitdep = { git = \"https://example.com/repo.git\", branch = \"dev\" }") {
		t.Errorf("manifest missing git dependency:\n%s", got)
	}
}

func TestAddGitWithRequirementFails(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, git: "https://example.com/repo.git"}
	err := runAdd(context.Background(), []string{"gitdep@1.0"}, opts)
	if errors.GetCode(err) != errors.ErrCodeConflictingArgs {
		t.Errorf("runAdd() error = %v, want CONFLICTING_ARGS", err)
	}
}

func TestAddPathDependency(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, "dep", "Cargo.toml"), `[package]
name = "demo"
version = "0.5.0"

[features]
extra = []
`)
	appPath := filepath.Join(root, "app", "Cargo.toml")
	writeFixture(t, appPath, `[package]
name = "app"
version = "0.1.0"
`)

	opts := &addOptions{
		manifestPath: appPath, offline: true, quiet: true,
		path: filepath.Join(root, "dep"),
	}
	if err := runAdd(context.Background(), nil, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, appPath)
	if !strings.Contains(got, "demo = { version = \"0.5.0\", path = \"../dep\" }") {
		t.Errorf("manifest missing path dependency:\n%s", got)
	}
}

func TestAddPathNameMismatch(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, "dep", "Cargo.toml"), `[package]
name = "demo"
version = "0.5.0"
`)
	appPath := filepath.Join(root, "app", "Cargo.toml")
	writeFixture(t, appPath, `[package]
name = "app"
version = "0.1.0"
`)

	opts := &addOptions{
		manifestPath: appPath, offline: true, quiet: true,
		path: filepath.Join(root, "dep"),
	}
	err := runAdd(context.Background(), []string{"other"}, opts)
	if errors.GetCode(err) != errors.ErrCodeInvalidSpec {
		t.Errorf("runAdd() error = %v, want INVALID_SPEC", err)
	}
}

func TestAddWorkspaceMember(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, "Cargo.toml"), `[workspace]
members = ["crates/*"]
`)
	writeFixture(t, filepath.Join(root, "crates", "alpha", "Cargo.toml"), `[package]
name = "alpha"
version = "0.3.0"
`)
	appPath := filepath.Join(root, "crates", "app", "Cargo.toml")
	writeFixture(t, appPath, `[package]
name = "app"
version = "0.1.0"
`)

	opts := &addOptions{manifestPath: appPath, offline: true, quiet: true}
	if err := runAdd(context.Background(), []string{"alpha"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, appPath)
	if !strings.Contains(got, "alpha = { version = \"0.3.0\", path = \"../alpha\" }") {
		t.Errorf("manifest missing workspace sibling dependency:\n%s", got)
	}
}

func TestAddRegistryRequiresVersion(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, registry: "internal"}
	err := runAdd(context.Background(), []string{"serde"}, opts)
	if errors.GetCode(err) != errors.ErrCodeInvalidSpec {
		t.Errorf("runAdd() error = %v, want INVALID_SPEC", err)
	}
}

func TestAddRegistryUndefined(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, registry: "internal"}
	err := runAdd(context.Background(), []string{"serde@1.0"}, opts)
	if errors.GetCode(err) != errors.ErrCodeNotFound {
		t.Errorf("runAdd() error = %v, want NOT_FOUND", err)
	}
}

func TestAddRegistryDefined(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, ".cargo", "config.toml"), `[registries.internal]
index = "https://example.com/index"
`)
	path := filepath.Join(root, "Cargo.toml")
	writeFixture(t, path, `[package]
name = "app"
version = "0.1.0"
`)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, registry: "internal"}
	if err := runAdd(context.Background(), []string{"serde@1.0"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	if !strings.Contains(got, "serde = { version = \"1.0\", registry = \"internal\" }") {
		t.Errorf("manifest missing registry dependency:\n%s", got)
	}
}

func TestAddDryRunWritesNothing(t *testing.T) {
	isolateEnv(t)
	path := newAppManifest(t)
	before := readManifest(t, path)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, dryRun: true}
	if err := runAdd(context.Background(), []string{"serde@1.0"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	if got := readManifest(t, path); got != before {
		t.Errorf("dry run modified the manifest:\n%s", got)
	}
}

func TestAddSortSection(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "Cargo.toml")
	writeFixture(t, path, `[package]
name = "app"
version = "0.1.0"

[dependencies]
zlib = "1.0"
anyhow = "1.0"
`)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, sortSection: true}
	if err := runAdd(context.Background(), []string{"miniz@0.2"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	anyhow := strings.Index(got, "anyhow")
	miniz := strings.Index(got, "miniz")
	zlib := strings.Index(got, "zlib")
	if !(anyhow < miniz && miniz < zlib) {
		t.Errorf("section not sorted:\n%s", got)
	}
}

func TestAddMergesExistingEntry(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "Cargo.toml")
	writeFixture(t, path, `[package]
name = "app"
version = "0.1.0"

[dependencies]
serde = { version = "1.0", features = ["derive"] }
`)

	opts := &addOptions{manifestPath: path, offline: true, quiet: true, features: []string{"rc"}}
	if err := runAdd(context.Background(), []string{"serde@1.0"}, opts); err != nil {
		t.Fatalf("runAdd() error: %v", err)
	}

	got := readManifest(t, path)
	if !strings.Contains(got, "serde = { version = \"1.0\", features = [\"derive\", \"rc\"] }") {
		t.Errorf("features not unioned:\n%s", got)
	}
}

func TestValidateFeatures(t *testing.T) {
	dep := newTestDep(t, "demo", []string{"nope"}, map[string][]string{"extra": {}, "default": {}})
	err := validateFeatures(dep)
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Fatalf("validateFeatures() error = %v, want INVALID_INPUT", err)
	}
	if !strings.Contains(errors.UserMessage(err), "does not have the feature `nope`") {
		t.Errorf("unexpected message: %v", err)
	}

	dep.Features = []string{"extra"}
	if err := validateFeatures(dep); err != nil {
		t.Errorf("validateFeatures() error: %v", err)
	}
}
