package workspace

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cratemod/pkg/errors"
)

// Member is a package belonging to a workspace.
type Member struct {
	Name    string
	Version string
	Dir     string // absolute path to the member's directory
}

// Workspace is a discovered cargo workspace: the directory holding the
// `[workspace]` manifest and the packages it contains.
type Workspace struct {
	Root    string
	Members []Member
}

type workspaceFile struct {
	Workspace *struct {
		Members []string `toml:"members"`
		Exclude []string `toml:"exclude"`
	} `toml:"workspace"`
	Package *struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
}

// Find walks up from dir looking for a Cargo.toml containing a
// `[workspace]` table. It returns nil when no workspace encloses dir.
func Find(dir string) (*Workspace, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "unable to resolve %s", dir)
	}

	for {
		path := filepath.Join(dir, "Cargo.toml")
		if data, err := os.ReadFile(path); err == nil {
			var file workspaceFile
			if err := toml.Unmarshal(data, &file); err != nil {
				return nil, errors.Wrap(errors.ErrCodeManifestParse, err, "unable to parse %s", path)
			}
			if file.Workspace != nil {
				return load(dir, file)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Member returns the workspace member with the given package name.
func (w *Workspace) Member(name string) (*Member, bool) {
	for i := range w.Members {
		if w.Members[i].Name == name {
			return &w.Members[i], true
		}
	}
	return nil, false
}

func load(root string, file workspaceFile) (*Workspace, error) {
	ws := &Workspace{Root: root}

	excluded := map[string]bool{}
	for _, pattern := range file.Workspace.Exclude {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid workspace exclude pattern %q", pattern)
		}
		for _, m := range matches {
			excluded[m] = true
		}
	}

	seen := map[string]bool{}
	addMember := func(dir string) error {
		if seen[dir] || excluded[dir] {
			return nil
		}
		seen[dir] = true
		member, ok, err := readPackage(dir)
		if err != nil {
			return err
		}
		if ok {
			ws.Members = append(ws.Members, member)
		}
		return nil
	}

	// The root package, when present, is itself a member.
	if file.Package != nil {
		seen[root] = true
		ws.Members = append(ws.Members, Member{
			Name:    file.Package.Name,
			Version: file.Package.Version,
			Dir:     root,
		})
	}

	for _, pattern := range file.Workspace.Members {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid workspace member pattern %q", pattern)
		}
		for _, dir := range matches {
			if err := addMember(dir); err != nil {
				return nil, err
			}
		}
	}
	return ws, nil
}

// readPackage reads the `[package]` identity of the manifest in dir.
// Directories without a Cargo.toml are skipped, which lets member globs
// match non-crate directories harmlessly.
func readPackage(dir string) (Member, bool, error) {
	path := filepath.Join(dir, "Cargo.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Member{}, false, nil
		}
		return Member{}, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "unable to read %s", path)
	}

	var file workspaceFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return Member{}, false, errors.Wrap(errors.ErrCodeManifestParse, err, "unable to parse %s", path)
	}
	if file.Package == nil {
		return Member{}, false, nil
	}
	return Member{Name: file.Package.Name, Version: file.Package.Version, Dir: dir}, true, nil
}
