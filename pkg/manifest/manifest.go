package manifest

import (
	"strings"

	"github.com/matzehuels/cratemod/pkg/errors"
	"github.com/matzehuels/cratemod/pkg/tomledit"
)

// DepTables lists the dependency-bearing table kinds in their canonical
// order, used for section discovery and output ordering alike.
var DepTables = [3]string{"dependencies", "dev-dependencies", "build-dependencies"}

// Manifest wraps a format-preserving document tree of a Cargo.toml and
// provides the dependency-editing operations on top of it.
type Manifest struct {
	doc *tomledit.Document
}

// Parse reads manifest text into a Manifest. Syntax errors carry their
// source location.
func Parse(text string) (*Manifest, error) {
	doc, err := tomledit.Parse(text)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestParse, err, "unable to parse manifest")
	}
	return &Manifest{doc: doc}, nil
}

// String serializes the manifest back to TOML text. Regions untouched by
// editing operations come back byte-for-byte.
func (m *Manifest) String() string {
	return m.doc.String()
}

// Document exposes the underlying document tree for operations the
// manifest API does not cover.
func (m *Manifest) Document() *tomledit.Document {
	return m.doc
}

// packageTable returns the `[package]` table, accepting the legacy
// `[project]` spelling as well.
func (m *Manifest) packageTable() tomledit.TableLike {
	for _, key := range []string{"package", "project"} {
		if t, ok := tomledit.AsTableLike(m.doc.Get(key)); ok {
			return t
		}
	}
	return nil
}

// PackageName returns the declared package name, if the manifest has one.
func (m *Manifest) PackageName() (string, bool) {
	if t := m.packageTable(); t != nil {
		return tomledit.AsString(t.Get("name"))
	}
	return "", false
}

// PackageVersion returns the declared package version, if any.
func (m *Manifest) PackageVersion() (string, bool) {
	if t := m.packageTable(); t != nil {
		return tomledit.AsString(t.Get("version"))
	}
	return "", false
}

// Section is one dependency-bearing table together with the key path
// that reaches it from the document root.
type Section struct {
	Path  []string
	Table tomledit.TableLike
}

// Kind returns the dependency-table kind of the section, the last
// segment of its path.
func (s Section) Kind() string {
	return s.Path[len(s.Path)-1]
}

// Name renders the section path the way cargo output refers to it.
func (s Section) Name() string {
	return strings.Join(s.Path, ".")
}

// GetSections returns every dependency-bearing table present in the
// manifest: the top-level kinds first in canonical order, then for each
// `[target.'cfg']` entry in document order, its kinds in canonical order.
func (m *Manifest) GetSections() []Section {
	var sections []Section
	for _, kind := range DepTables {
		if t, ok := tomledit.AsTableLike(m.doc.Get(kind)); ok {
			sections = append(sections, Section{Path: []string{kind}, Table: t})
		}
	}
	targets, ok := tomledit.AsTableLike(m.doc.Get("target"))
	if !ok {
		return sections
	}
	for _, name := range targets.Keys() {
		target, ok := tomledit.AsTableLike(targets.Get(name))
		if !ok {
			continue
		}
		for _, kind := range DepTables {
			if t, ok := tomledit.AsTableLike(target.Get(kind)); ok {
				sections = append(sections, Section{
					Path:  []string{"target", name, kind},
					Table: t,
				})
			}
		}
	}
	return sections
}

// GetTable descends the given key path and returns the table there. A
// missing segment or a non-table value along the way is a table-not-found
// error naming the requested path.
func (m *Manifest) GetTable(path []string) (tomledit.TableLike, error) {
	var cur tomledit.TableLike = m.doc.Root()
	for _, seg := range path {
		next, ok := tomledit.AsTableLike(cur.Get(seg))
		if !ok {
			return nil, tableNotFound(path)
		}
		cur = next
	}
	return cur, nil
}

// GetTableMut descends the given key path, creating missing tables on
// the way. Created intermediates are implicit so they serialize no
// header of their own; the final table gets a real `[header]`. An
// existing non-table value along the path is still a table-not-found
// error.
func (m *Manifest) GetTableMut(path []string) (tomledit.TableLike, error) {
	var cur tomledit.TableLike = m.doc.Root()
	for i, seg := range path {
		existing := cur.Get(seg)
		if existing == nil {
			fresh := tomledit.NewTable()
			fresh.SetImplicit(i < len(path)-1)
			cur.Set(seg, fresh)
			cur = fresh
			continue
		}
		next, ok := tomledit.AsTableLike(existing)
		if !ok {
			return nil, tableNotFound(path)
		}
		cur = next
	}
	return cur, nil
}

func tableNotFound(path []string) error {
	return errors.New(errors.ErrCodeTableNotFound,
		"The table `%s` could not be found.", strings.Join(path, "."))
}

// Features derives the feature map: the declared `[features]` table,
// plus an implicit empty entry for every optional dependency's document
// key. A declared feature always wins over an implicit one of the same
// name.
func (m *Manifest) Features() (map[string][]string, error) {
	features := map[string][]string{}

	if declared := m.doc.Get("features"); declared != nil {
		table, ok := tomledit.AsTableLike(declared)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFeatures,
				"`features` table is invalid: expected a table of feature arrays")
		}
		for _, name := range table.Keys() {
			arr, ok := tomledit.AsArray(table.Get(name))
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidFeatures,
					"feature `%s` is invalid: expected an array of strings", name)
			}
			values, ok := arr.Strings()
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidFeatures,
					"feature `%s` is invalid: expected an array of strings", name)
			}
			features[name] = values
		}
	}

	for _, section := range m.GetSections() {
		for _, key := range section.Table.Keys() {
			entry, ok := tomledit.AsTableLike(section.Table.Get(key))
			if !ok {
				continue
			}
			optional, _ := tomledit.AsBool(entry.Get("optional"))
			if !optional {
				continue
			}
			if _, declared := features[key]; !declared {
				features[key] = []string{}
			}
		}
	}

	return features, nil
}

// depStatus is the presence lattice of a dependency across all sections.
type depStatus int

const (
	depStatusNone depStatus = iota
	depStatusOptional
	depStatusRequired
)

// status computes the dependency's presence across every section.
// Optional anywhere wins outright; otherwise any occurrence at all means
// required.
func (m *Manifest) status(depKey string) depStatus {
	status := depStatusNone
	for _, section := range m.GetSections() {
		entry := section.Table.Get(depKey)
		if entry == nil {
			continue
		}
		if t, ok := tomledit.AsTableLike(entry); ok {
			if optional, _ := tomledit.AsBool(t.Get("optional")); optional {
				return depStatusOptional
			}
		}
		status = depStatusRequired
	}
	return status
}

// featureValue is one parsed entry of a feature's requirement list.
type featureValue struct {
	kind    featureValueKind
	depName string // for valueDep and valueDepFeature
}

type featureValueKind int

const (
	valueFeature featureValueKind = iota // bare name, implicit activation
	valueDep                            // "dep:name"
	valueDepFeature                     // "name/sub" or "name?/sub"
)

// parseFeatureValue decodes one feature-list entry. A `?` suffix on the
// dependency half of a `name/sub` value marks a weak activation and is
// stripped; weak and strong references prune the same way.
func parseFeatureValue(raw string) featureValue {
	if dep, _, found := strings.Cut(raw, "/"); found {
		dep = strings.TrimSuffix(dep, "?")
		return featureValue{kind: valueDepFeature, depName: dep}
	}
	if dep, ok := strings.CutPrefix(raw, "dep:"); ok {
		return featureValue{kind: valueDep, depName: dep}
	}
	return featureValue{kind: valueFeature, depName: raw}
}

// hasExplicitActivation reports whether any feature list activates the
// dependency explicitly via `dep:name`. When one exists, a bare-name
// entry is an ordinary feature reference rather than an implicit
// activation, and pruning leaves it alone. A `name/sub` reference does
// not count; it addresses a feature of the dependency, it does not
// activate it.
func (m *Manifest) hasExplicitActivation(depKey string) bool {
	table, ok := tomledit.AsTableLike(m.doc.Get("features"))
	if !ok {
		return false
	}
	for _, name := range table.Keys() {
		arr, ok := tomledit.AsArray(table.Get(name))
		if !ok {
			continue
		}
		for i := 0; i < arr.Len(); i++ {
			raw, ok := tomledit.AsString(arr.At(i))
			if !ok {
				continue
			}
			v := parseFeatureValue(raw)
			if v.kind == valueDep && v.depName == depKey {
				return true
			}
		}
	}
	return false
}

// GcDep prunes `[features]` entries that reference a dependency after it
// was removed from a section. What gets pruned depends on where the
// dependency still appears:
//
//   - gone everywhere: bare-name activations (unless the name is also an
//     explicitly activated feature), `dep:name` entries, and `name/sub`
//     entries all go;
//   - still optional somewhere: everything stays, the activations are
//     still meaningful;
//   - still present but nowhere optional: bare-name and `dep:name`
//     activations go, `name/sub` references stay since the features of a
//     required dependency remain addressable.
func (m *Manifest) GcDep(depKey string) {
	explicit := m.hasExplicitActivation(depKey)
	status := m.status(depKey)
	if status == depStatusOptional {
		return
	}

	table, ok := tomledit.AsTableLike(m.doc.Get("features"))
	if !ok {
		return
	}
	for _, name := range table.Keys() {
		arr, ok := tomledit.AsArray(table.Get(name))
		if !ok {
			continue
		}
		var remove []int
		for i := 0; i < arr.Len(); i++ {
			raw, ok := tomledit.AsString(arr.At(i))
			if !ok {
				continue
			}
			v := parseFeatureValue(raw)
			if v.depName != depKey {
				continue
			}
			switch v.kind {
			case valueFeature:
				if !explicit {
					remove = append(remove, i)
				}
			case valueDep:
				remove = append(remove, i)
			case valueDepFeature:
				if status == depStatusNone {
					remove = append(remove, i)
				}
			}
		}
		for j := len(remove) - 1; j >= 0; j-- {
			arr.Remove(remove[j])
		}
	}
}
