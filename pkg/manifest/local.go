package manifest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/cratemod/pkg/errors"
	"github.com/matzehuels/cratemod/pkg/io"
	"github.com/matzehuels/cratemod/pkg/observability"
	"github.com/matzehuels/cratemod/pkg/tomledit"
)

// LocalManifest is a manifest tied to a path on disk. The path anchors
// relative dependency paths and gates writing.
type LocalManifest struct {
	// Path is the absolute location of the Cargo.toml.
	Path string

	*Manifest
}

// Load reads and parses the manifest at path.
func Load(path string) (*LocalManifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid manifest path %s", path)
	}

	ctx := context.Background()
	observability.Manifest().OnParseStart(ctx, abs)
	start := time.Now()
	lm, err := load(abs)
	observability.Manifest().OnParseComplete(ctx, abs, time.Since(start), err)
	return lm, err
}

func load(abs string) (*LocalManifest, error) {
	text, err := io.ReadManifest(abs)
	if err != nil {
		return nil, err
	}
	m, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return &LocalManifest{Path: abs, Manifest: m}, nil
}

// Dir returns the directory containing the manifest, the crate root that
// relative dependency paths resolve against.
func (m *LocalManifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Write serializes the manifest and atomically replaces the file on
// disk. A manifest without a package identity is refused: a workspace
// root with no `[package]` is a virtual manifest, anything else is
// simply malformed.
func (m *LocalManifest) Write() error {
	if m.packageTable() == nil {
		if _, ok := tomledit.AsTableLike(m.doc.Get("workspace")); ok {
			return errors.New(errors.ErrCodeVirtualManifest,
				"found virtual manifest at %s, but this command requires running against an actual package in this workspace", m.Path)
		}
		return errors.New(errors.ErrCodeMissingPackage,
			"missing expected `package` or `project` fields in %s", m.Path)
	}

	ctx := context.Background()
	text := m.String()
	observability.Manifest().OnWriteStart(ctx, m.Path)
	start := time.Now()
	err := io.WriteManifest(m.Path, text)
	observability.Manifest().OnWriteComplete(ctx, m.Path, len(text), time.Since(start), err)
	return err
}

// InsertIntoTable adds the dependency to the table at path, creating the
// table if needed. An entry already present under the dependency's key
// is merged field by field instead of replaced.
func (m *LocalManifest) InsertIntoTable(path []string, dep *Dependency) error {
	table, err := m.GetTableMut(path)
	if err != nil {
		return err
	}
	key := dep.TomlKey()
	if table.Get(key) != nil {
		dep.UpdateNode(m.Dir(), table, key)
	} else {
		table.Set(key, dep.ToNode(m.Dir()))
	}
	if it, ok := table.(*tomledit.InlineTable); ok {
		it.Normalize()
	}
	observability.Manifest().OnDependencyChange(context.Background(), "add", key, strings.Join(path, "."))
	return nil
}

// RemoveFromTable deletes the entry for key from the table at path. A
// section left empty disappears, along with any per-target parent tables
// that end up holding nothing.
func (m *LocalManifest) RemoveFromTable(path []string, key string) error {
	table, err := m.GetTable(path)
	if err != nil {
		return err
	}
	if !table.Remove(key) {
		return errors.New(errors.ErrCodeDepNotFound,
			"the dependency `%s` could not be found in `%s`", key, strings.Join(path, "."))
	}
	m.pruneEmpty(path)
	observability.Manifest().OnDependencyChange(context.Background(), "remove", key, strings.Join(path, "."))
	return nil
}

// pruneEmpty removes the table at path if it has no entries left, then
// walks the path upward doing the same for each parent.
func (m *LocalManifest) pruneEmpty(path []string) {
	for i := len(path); i > 0; i-- {
		parent, err := m.GetTable(path[:i-1])
		if err != nil {
			return
		}
		t, ok := tomledit.AsTableLike(parent.Get(path[i-1]))
		if !ok || t.Len() > 0 {
			return
		}
		parent.Remove(path[i-1])
	}
}

// GetDependency returns the dependency stored at key inside the table at
// path, decoded into the model type.
func (m *LocalManifest) GetDependency(path []string, key string) (*Dependency, error) {
	table, err := m.GetTable(path)
	if err != nil {
		return nil, err
	}
	node := table.Get(key)
	if node == nil {
		return nil, errors.New(errors.ErrCodeDepNotFound,
			"the dependency `%s` could not be found in `%s`", key, strings.Join(path, "."))
	}
	return FromNode(m.Dir(), key, node)
}

// DependencyVersions iterates every section and yields each entry that
// decodes as a dependency, for version lookups across the manifest.
func (m *LocalManifest) DependencyVersions() []*Dependency {
	var deps []*Dependency
	for _, section := range m.GetSections() {
		for _, key := range section.Table.Keys() {
			dep, err := FromNode(m.Dir(), key, section.Table.Get(key))
			if err != nil {
				continue
			}
			deps = append(deps, dep)
		}
	}
	return deps
}
