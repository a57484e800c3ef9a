package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matzehuels/cratemod/pkg/errors"
	"github.com/matzehuels/cratemod/pkg/tomledit"
)

// Dependency is the desired state of one dependency entry, independent
// of how it is formatted in the manifest. Pointer fields are tri-state:
// a non-nil value is written explicitly, nil clears the key when the
// entry is updated so stale settings never linger.
type Dependency struct {
	// Name is the package name as known to the registry. When the
	// dependency is renamed it differs from the document key.
	Name string

	// Rename is the alias used as the document key; when set, the entry
	// carries a `package` field holding Name.
	Rename *string

	// Source is where the dependency comes from; nil leaves the source
	// fields of an existing entry untouched.
	Source Source

	// Registry is an alternate registry name; only persisted alongside
	// a version requirement.
	Registry *string

	Optional        *bool
	DefaultFeatures *bool

	// Features are unioned into the existing feature list when non-nil.
	// Order is preserved and duplicates collapse.
	Features []string

	// AvailableFeatures caches the features the resolved package
	// exposes, for validation and suggestions. Never serialized.
	AvailableFeatures map[string][]string
}

// NewDependency creates a dependency with only the name set.
func NewDependency(name string) *Dependency {
	return &Dependency{Name: name}
}

// TomlKey returns the document key for the dependency: the rename alias
// when present, the package name otherwise.
func (d *Dependency) TomlKey() string {
	if d.Rename != nil {
		return *d.Rename
	}
	return d.Name
}

// Version returns the version requirement carried by the source, if any.
func (d *Dependency) Version() (string, bool) {
	switch src := d.Source.(type) {
	case *RegistrySource:
		return src.Version, true
	case *PathSource:
		if src.Version != nil {
			return *src.Version, true
		}
	case *GitSource:
	}
	return "", false
}

// Path returns the absolute path of a path-sourced dependency, if any.
func (d *Dependency) Path() (string, bool) {
	if src, ok := d.Source.(*PathSource); ok {
		return src.Path, true
	}
	return "", false
}

// String renders the dependency the way cargo refers to it in output:
// `name@source` when a source is known, the document key otherwise.
func (d *Dependency) String() string {
	if d.Source != nil {
		return d.Name + "@" + d.Source.String()
	}
	return d.TomlKey()
}

// FromNode builds a Dependency from a document node at the given key.
// A plain string node is a registry version requirement; a table-like
// node is decoded field by field. crateRoot resolves relative `path`
// fields to absolute paths.
func FromNode(crateRoot, key string, node tomledit.Value) (*Dependency, error) {
	if version, ok := tomledit.AsString(node); ok {
		dep := NewDependency(key)
		dep.Source = NewRegistrySource(version)
		return dep, nil
	}

	table, ok := tomledit.AsTableLike(node)
	if !ok {
		return nil, errors.New(errors.ErrCodeManifestSchema,
			"unrecognized dependency entry format for `%s`", key)
	}

	dep := NewDependency(key)
	if v := table.Get("package"); v != nil {
		name, err := stringField(key, "package", v)
		if err != nil {
			return nil, err
		}
		rename := key
		dep.Name = name
		dep.Rename = &rename
	}

	switch {
	case table.Get("git") != nil:
		url, err := stringField(key, "git", table.Get("git"))
		if err != nil {
			return nil, err
		}
		src := NewGitSource(url)
		for _, ref := range []struct {
			field string
			set   func(string) *GitSource
		}{
			{"branch", src.SetBranch},
			{"tag", src.SetTag},
			{"rev", src.SetRev},
		} {
			if v := table.Get(ref.field); v != nil {
				s, err := stringField(key, ref.field, v)
				if err != nil {
					return nil, err
				}
				ref.set(s)
			}
		}
		dep.Source = src
	case table.Get("path") != nil:
		p, err := stringField(key, "path", table.Get("path"))
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(crateRoot, p)
		}
		src := NewPathSource(p)
		if v := table.Get("version"); v != nil {
			ver, err := stringField(key, "version", v)
			if err != nil {
				return nil, err
			}
			src.SetVersion(ver)
		}
		dep.Source = src
	case table.Get("version") != nil:
		ver, err := stringField(key, "version", table.Get("version"))
		if err != nil {
			return nil, err
		}
		dep.Source = NewRegistrySource(ver)
	default:
		return nil, errors.New(errors.ErrCodeUnknownSource,
			"unrecognized dependency source for `%s`", key)
	}

	if v := table.Get("registry"); v != nil {
		reg, err := stringField(key, "registry", v)
		if err != nil {
			return nil, err
		}
		dep.Registry = &reg
	}
	if v := table.Get("default-features"); v != nil {
		if b, ok := tomledit.AsBool(v); ok {
			dep.DefaultFeatures = &b
		}
	}
	if v := table.Get("features"); v != nil {
		arr, ok := tomledit.AsArray(v)
		if !ok {
			return nil, invalidType(key, "features", typeName(v), "array")
		}
		features := make([]string, 0, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			s, ok := tomledit.AsString(arr.At(i))
			if !ok {
				return nil, invalidType(key, "features", typeName(arr.At(i)), "string")
			}
			features = append(features, s)
		}
		dep.Features = dedupe(features)
	}
	if v := table.Get("optional"); v != nil {
		if b, ok := tomledit.AsBool(v); ok {
			dep.Optional = &b
		}
	}

	return dep, nil
}

// shortForm reports whether the dependency can serialize as a plain
// version string: a bare registry requirement with nothing else
// explicitly set.
func (d *Dependency) shortForm() bool {
	_, isRegistry := d.Source.(*RegistrySource)
	return isRegistry &&
		d.Optional == nil &&
		d.Features == nil &&
		d.DefaultFeatures == nil &&
		d.Registry == nil &&
		d.Rename == nil
}

// ToNode serializes the dependency to a document node: a plain string
// for the short form, an inline table otherwise. crateRoot must be
// absolute; relative `path` values are computed against it.
func (d *Dependency) ToNode(crateRoot string) tomledit.Value {
	if !filepath.IsAbs(crateRoot) {
		panic(fmt.Sprintf("absolute path needed, got: %s", crateRoot))
	}
	if d.shortForm() {
		src := d.Source.(*RegistrySource)
		return tomledit.NewString(src.Version)
	}

	table := tomledit.NewInlineTable()
	switch src := d.Source.(type) {
	case *RegistrySource:
		table.Set("version", tomledit.NewString(src.Version))
	case *PathSource:
		if src.Version != nil {
			table.Set("version", tomledit.NewString(*src.Version))
		}
		table.Set("path", tomledit.NewString(pathField(crateRoot, src.Path)))
	case *GitSource:
		table.Set("git", tomledit.NewString(src.URL))
		if src.Branch != nil {
			table.Set("branch", tomledit.NewString(*src.Branch))
		}
		if src.Tag != nil {
			table.Set("tag", tomledit.NewString(*src.Tag))
		}
		if src.Rev != nil {
			table.Set("rev", tomledit.NewString(*src.Rev))
		}
	}
	if table.Get("version") != nil && d.Registry != nil {
		table.Set("registry", tomledit.NewString(*d.Registry))
	}
	if d.Rename != nil {
		table.Set("package", tomledit.NewString(d.Name))
	}
	if d.DefaultFeatures != nil {
		table.Set("default-features", tomledit.NewBool(*d.DefaultFeatures))
	}
	if d.Features != nil {
		table.Set("features", featureArray(dedupe(d.Features)))
	}
	if d.Optional != nil {
		table.Set("optional", tomledit.NewBool(*d.Optional))
	}
	table.Normalize()
	return table
}

// UpdateNode merges the dependency into the entry at key inside
// container, disturbing as little of the existing node as possible.
// A bare string or single-key table holds nothing worth preserving and
// is replaced wholesale, as is any entry whose package identity differs.
// Otherwise each field is set or removed individually so unrelated keys
// and their formatting survive.
func (d *Dependency) UpdateNode(crateRoot string, container tomledit.TableLike, key string) {
	existing := container.Get(key)
	if strOr1LenTable(existing) || !isPackageEq(existing, d.Name, d.Rename) {
		d.replaceNode(crateRoot, container, key)
		return
	}

	table, ok := tomledit.AsTableLike(existing)
	if !ok {
		d.replaceNode(crateRoot, container, key)
		return
	}

	switch src := d.Source.(type) {
	case *RegistrySource:
		table.Set("version", tomledit.NewString(src.Version))
		for _, k := range []string{"path", "git", "branch", "tag", "rev"} {
			table.Remove(k)
		}
	case *PathSource:
		if src.Version != nil {
			table.Set("version", tomledit.NewString(*src.Version))
		} else {
			table.Remove("version")
		}
		table.Set("path", tomledit.NewString(pathField(crateRoot, src.Path)))
		for _, k := range []string{"git", "branch", "tag", "rev"} {
			table.Remove(k)
		}
	case *GitSource:
		table.Set("git", tomledit.NewString(src.URL))
		setOrRemove(table, "branch", src.Branch)
		setOrRemove(table, "tag", src.Tag)
		setOrRemove(table, "rev", src.Rev)
		table.Remove("version")
		table.Remove("path")
	}

	if table.Get("version") != nil {
		setOrRemove(table, "registry", d.Registry)
	} else {
		table.Remove("registry")
	}

	if d.Rename != nil {
		table.Set("package", tomledit.NewString(d.Name))
	}
	if d.DefaultFeatures != nil {
		table.Set("default-features", tomledit.NewBool(*d.DefaultFeatures))
	} else {
		table.Remove("default-features")
	}
	if d.Features != nil {
		existing := []string{}
		if arr, ok := tomledit.AsArray(table.Get("features")); ok {
			if vals, ok := arr.Strings(); ok {
				existing = vals
			}
		}
		table.Set("features", featureArray(dedupe(append(existing, d.Features...))))
	} else {
		table.Remove("features")
	}
	if d.Optional != nil {
		table.Set("optional", tomledit.NewBool(*d.Optional))
	} else {
		table.Remove("optional")
	}

	if it, ok := tomledit.AsInlineTable(existing); ok {
		it.Normalize()
	}
}

// replaceNode swaps the entry at key for a freshly built node. A rename
// moves the entry to its new document key.
func (d *Dependency) replaceNode(crateRoot string, container tomledit.TableLike, key string) {
	if newKey := d.TomlKey(); newKey != key {
		container.Remove(key)
		container.Set(newKey, d.ToNode(crateRoot))
		return
	}
	container.Set(key, d.ToNode(crateRoot))
}

// strOr1LenTable reports whether node is a plain string or a table with
// a single key; either way there is no formatting worth preserving.
func strOr1LenTable(node tomledit.Value) bool {
	if node == nil {
		return false
	}
	if tomledit.IsString(node) {
		return true
	}
	if t, ok := tomledit.AsTableLike(node); ok {
		return t.Len() == 1
	}
	return false
}

// isPackageEq reports whether the node's package identity matches the
// given name/rename pair: the existing `package` field must equal the
// new name exactly when renamed, and be absent when not.
func isPackageEq(node tomledit.Value, name string, rename *string) bool {
	table, ok := tomledit.AsTableLike(node)
	if !ok {
		return false
	}
	existing, hasExisting := "", false
	if v := table.Get("package"); v != nil {
		existing, hasExisting = tomledit.AsString(v)
	}
	if rename == nil {
		return !hasExisting
	}
	return hasExisting && existing == name
}

// pathField renders the path of a path dependency relative to the crate
// root, with forward slashes regardless of platform.
func pathField(crateRoot, absPath string) string {
	rel, err := filepath.Rel(crateRoot, absPath)
	if err != nil {
		rel = absPath
	}
	return strings.ReplaceAll(rel, "\\", "/")
}

func setOrRemove(table tomledit.TableLike, key string, value *string) {
	if value != nil {
		table.Set(key, tomledit.NewString(*value))
	} else {
		table.Remove(key)
	}
}

func featureArray(features []string) *tomledit.Array {
	arr := tomledit.NewArray()
	for _, f := range features {
		arr.Append(tomledit.NewString(f))
	}
	return arr
}

// dedupe collapses duplicates while keeping first-occurrence order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func invalidType(dep, key, actual, expected string) error {
	return errors.New(errors.ErrCodeManifestSchema,
		"found %s for %s when %s was expected for `%s`", actual, key, expected, dep)
}

func stringField(dep, key string, v tomledit.Value) (string, error) {
	s, ok := tomledit.AsString(v)
	if !ok {
		return "", invalidType(dep, key, typeName(v), "string")
	}
	return s, nil
}

func typeName(v tomledit.Value) string {
	if v == nil {
		return "nothing"
	}
	return v.Kind().String()
}
