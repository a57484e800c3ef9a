package manifest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/cratemod/pkg/errors"
	"github.com/matzehuels/cratemod/pkg/tomledit"
)

func TestParseError(t *testing.T) {
	_, err := Parse("[dependencies\n")
	if !errors.Is(err, errors.ErrCodeManifestParse) {
		t.Errorf("error code = %v, want MANIFEST_PARSE", errors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("error lacks source location: %v", err)
	}
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"package", "[package]\nname = \"demo\"\n", "demo", true},
		{"legacy project", "[project]\nname = \"old\"\n", "old", true},
		{"virtual", "[workspace]\nmembers = []\n", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parseManifest(t, tt.text)
			got, ok := m.PackageName()
			if got != tt.want || ok != tt.ok {
				t.Errorf("PackageName() = %q, %v, want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestGetSections(t *testing.T) {
	m := parseManifest(t, `[dev-dependencies]
b = "1"

[dependencies]
a = "1"

[target."cfg(unix)".dev-dependencies]
d = "1"

[target."cfg(unix)".dependencies]
c = "1"

[build-dependencies]
e = "1"
`)

	var got []string
	for _, s := range m.GetSections() {
		got = append(got, s.Name())
	}
	want := []string{
		"dependencies",
		"dev-dependencies",
		"build-dependencies",
		"target.cfg(unix).dependencies",
		"target.cfg(unix).dev-dependencies",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sections = %v, want %v", got, want)
	}
}

func TestGetTable(t *testing.T) {
	m := parseManifest(t, "[package]\nname = \"demo\"\n\n[dependencies]\nserde = \"1.0\"\n")

	table, err := m.GetTable([]string{"dependencies"})
	if err != nil {
		t.Fatalf("GetTable() error: %v", err)
	}
	if table.Get("serde") == nil {
		t.Error("serde missing from dependencies table")
	}

	_, err = m.GetTable([]string{"dev-dependencies"})
	if !errors.Is(err, errors.ErrCodeTableNotFound) {
		t.Errorf("error code = %v, want TABLE_NOT_FOUND", errors.GetCode(err))
	}
	if want := "The table `dev-dependencies` could not be found."; errors.UserMessage(err) != want {
		t.Errorf("message = %q, want %q", errors.UserMessage(err), want)
	}

	// A path segment holding a non-table value reads as missing too.
	_, err = m.GetTable([]string{"package", "name"})
	if !errors.Is(err, errors.ErrCodeTableNotFound) {
		t.Errorf("error code = %v, want TABLE_NOT_FOUND", errors.GetCode(err))
	}
}

func TestGetTableMutCreatesNestedTables(t *testing.T) {
	m := parseManifest(t, "[package]\nname = \"demo\"\n")

	table, err := m.GetTableMut([]string{"target", "cfg(unix)", "dependencies"})
	if err != nil {
		t.Fatalf("GetTableMut() error: %v", err)
	}
	table.Set("libc", tomledit.NewString("0.2"))

	want := "[package]\nname = \"demo\"\n\n[target.'cfg(unix)'.dependencies]\nlibc = \"0.2\"\n"
	if got := m.String(); got != want {
		t.Errorf("serialized =\n%s\nwant\n%s", got, want)
	}
}

func TestGetTableMutRejectsNonTable(t *testing.T) {
	m := parseManifest(t, "dependencies = \"oops\"\n")

	_, err := m.GetTableMut([]string{"dependencies"})
	if !errors.Is(err, errors.ErrCodeTableNotFound) {
		t.Errorf("error code = %v, want TABLE_NOT_FOUND", errors.GetCode(err))
	}
}

func TestFeatures(t *testing.T) {
	m := parseManifest(t, `[dependencies]
foo = { version = "1.0", optional = true }
bar = "1.0"

[dev-dependencies]
baz = { version = "1.0", optional = true }

[features]
default = ["foo"]
baz = ["bar"]
`)

	got, err := m.Features()
	if err != nil {
		t.Fatalf("Features() error: %v", err)
	}
	want := map[string][]string{
		"default": {"foo"},
		"baz":     {"bar"}, // declared feature wins over the implicit one
		"foo":     {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Features() = %v, want %v", got, want)
	}
}

func TestFeaturesInvalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"string value", "[features]\ndefault = \"foo\"\n"},
		{"non-string element", "[features]\ndefault = [1, 2]\n"},
		{"features not a table", "features = \"foo\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parseManifest(t, tt.text)
			_, err := m.Features()
			if !errors.Is(err, errors.ErrCodeInvalidFeatures) {
				t.Errorf("error code = %v, want INVALID_FEATURES", errors.GetCode(err))
			}
		})
	}
}

func TestDepStatus(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
		want depStatus
	}{
		{"absent", "[dependencies]\nother = \"1\"\n", "foo", depStatusNone},
		{"required", "[dependencies]\nfoo = \"1\"\n", "foo", depStatusRequired},
		{"optional", "[dependencies]\nfoo = { version = \"1\", optional = true }\n", "foo", depStatusOptional},
		{
			"optional anywhere wins",
			"[dependencies]\nfoo = \"1\"\n\n[dev-dependencies]\nfoo = { version = \"1\", optional = true }\n",
			"foo", depStatusOptional,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parseManifest(t, tt.text)
			if got := m.status(tt.key); got != tt.want {
				t.Errorf("status(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestParseFeatureValue(t *testing.T) {
	tests := []struct {
		raw  string
		kind featureValueKind
		dep  string
	}{
		{"serde", valueFeature, "serde"},
		{"dep:serde", valueDep, "serde"},
		{"serde/derive", valueDepFeature, "serde"},
		{"serde?/derive", valueDepFeature, "serde"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := parseFeatureValue(tt.raw)
			if got.kind != tt.kind || got.depName != tt.dep {
				t.Errorf("parseFeatureValue(%q) = %+v, want kind %v dep %q", tt.raw, got, tt.kind, tt.dep)
			}
		})
	}
}

func TestGcDepRequiredKeepsSubFeatureRefs(t *testing.T) {
	// foo was removed from one section but stays required in another:
	// the bare activation goes, the sub-feature reference survives.
	m := parseManifest(t, `[dependencies]
foo = "1.0"

[features]
default = ["bar", "foo"]
extras = ["foo/extra"]
`)
	m.GcDep("foo")

	want := `[dependencies]
foo = "1.0"

[features]
default = ["bar"]
extras = ["foo/extra"]
`
	if got := m.String(); got != want {
		t.Errorf("serialized =\n%s\nwant\n%s", got, want)
	}
}

func TestGcDepFullyRemoved(t *testing.T) {
	m := parseManifest(t, `[dependencies]
bar = "1.0"

[features]
default = ["bar", "foo"]
extras = ["bar/std", "foo/extra"]
`)
	m.GcDep("foo")

	want := `[dependencies]
bar = "1.0"

[features]
default = ["bar"]
extras = ["bar/std"]
`
	if got := m.String(); got != want {
		t.Errorf("serialized =\n%s\nwant\n%s", got, want)
	}
}

func TestGcDepExplicitActivationKeepsBareName(t *testing.T) {
	// With a dep:foo entry present, a bare "foo" is a reference to the
	// feature named foo, not an implicit activation, so only the dep:
	// entry is pruned.
	m := parseManifest(t, `[features]
default = ["foo"]
extras = ["dep:foo"]
`)
	m.GcDep("foo")

	want := "[features]\ndefault = [\"foo\"]\nextras = []\n"
	if got := m.String(); got != want {
		t.Errorf("serialized =\n%s\nwant\n%s", got, want)
	}
}

func TestGcDepOptionalLeavesEverything(t *testing.T) {
	text := `[dependencies]
foo = { version = "1.0", optional = true }

[features]
default = ["foo", "dep:foo", "foo/extra"]
`
	m := parseManifest(t, text)
	m.GcDep("foo")

	if got := m.String(); got != text {
		t.Errorf("serialized =\n%s\nwant unchanged input", got)
	}
}
