package cli

import (
	"reflect"
	"testing"

	"github.com/matzehuels/cratemod/pkg/errors"
)

func TestParseCrateSpec(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		wantName string
		wantReq  string
		wantCode errors.Code
	}{
		{name: "bare name", spec: "serde", wantName: "serde"},
		{name: "name with req", spec: "serde@1.0", wantName: "serde", wantReq: "1.0"},
		{name: "full version", spec: "tokio@1.38.0", wantName: "tokio", wantReq: "1.38.0"},
		{name: "underscore name", spec: "serde_json@1", wantName: "serde_json", wantReq: "1"},
		{name: "empty name", spec: "@1.0", wantCode: errors.ErrCodeInvalidSpec},
		{name: "empty req", spec: "serde@", wantCode: errors.ErrCodeInvalidSpec},
		{name: "bad character", spec: "ser de", wantCode: errors.ErrCodeInvalidCrate},
		{name: "leading dash", spec: "-serde", wantCode: errors.ErrCodeInvalidCrate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, req, err := parseCrateSpec(tt.spec)
			if tt.wantCode != "" {
				if errors.GetCode(err) != tt.wantCode {
					t.Fatalf("parseCrateSpec(%q) error = %v, want code %s", tt.spec, err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCrateSpec(%q) error: %v", tt.spec, err)
			}
			if name != tt.wantName || req != tt.wantReq {
				t.Errorf("parseCrateSpec(%q) = (%q, %q), want (%q, %q)", tt.spec, name, req, tt.wantName, tt.wantReq)
			}
		})
	}
}

func TestSplitFeatures(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{name: "nil", values: nil, want: nil},
		{name: "single", values: []string{"derive"}, want: []string{"derive"}},
		{name: "comma separated", values: []string{"derive,rc"}, want: []string{"derive", "rc"}},
		{name: "space separated", values: []string{"derive rc"}, want: []string{"derive", "rc"}},
		{name: "repeated flag", values: []string{"derive", "rc,alloc"}, want: []string{"derive", "rc", "alloc"}},
		{name: "stray separators", values: []string{" derive,, rc "}, want: []string{"derive", "rc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitFeatures(tt.values); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitFeatures(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestDepSection(t *testing.T) {
	tests := []struct {
		name       string
		dev, build bool
		target     string
		wantPath   []string
		wantKind   string
		wantSuffix string
	}{
		{name: "default", wantPath: []string{"dependencies"}, wantKind: "dependencies"},
		{name: "dev", dev: true, wantPath: []string{"dev-dependencies"}, wantKind: "dev-dependencies"},
		{name: "build", build: true, wantPath: []string{"build-dependencies"}, wantKind: "build-dependencies"},
		{
			name:       "target",
			target:     "cfg(unix)",
			wantPath:   []string{"target", "cfg(unix)", "dependencies"},
			wantKind:   "dependencies",
			wantSuffix: " for target `cfg(unix)`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, kind, suffix := depSection(tt.dev, tt.build, tt.target)
			if !reflect.DeepEqual(path, tt.wantPath) || kind != tt.wantKind || suffix != tt.wantSuffix {
				t.Errorf("depSection() = (%v, %q, %q), want (%v, %q, %q)",
					path, kind, suffix, tt.wantPath, tt.wantKind, tt.wantSuffix)
			}
		})
	}
}
