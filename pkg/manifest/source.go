package manifest

import "strings"

// Source is the primary location of a dependency: a registry version
// requirement, a local path, or a git repository. The set is closed;
// every consumer switches exhaustively over the three concrete types.
type Source interface {
	// String renders the source the way cargo prints it (version, path,
	// or url with an optional ?ref suffix).
	String() string

	sourceKind() string
}

// RegistrySource is a dependency fetched from a package registry.
type RegistrySource struct {
	// Version is the version requirement, with any semver build
	// metadata stripped.
	Version string
}

// NewRegistrySource creates a registry source from a version
// requirement. Build metadata (everything from the first `+`) is
// truncated; persisting it would only draw a cargo warning.
func NewRegistrySource(version string) *RegistrySource {
	version, _, _ = strings.Cut(version, "+")
	return &RegistrySource{Version: version}
}

func (s *RegistrySource) String() string     { return s.Version }
func (s *RegistrySource) sourceKind() string { return "registry" }

// PathSource is a dependency located in a local directory.
type PathSource struct {
	// Path is absolute; serialization computes the relative form.
	Path string
	// Version is the optional requirement used when publishing.
	Version *string
}

// NewPathSource creates a path source for the given absolute path.
func NewPathSource(path string) *PathSource {
	return &PathSource{Path: path}
}

// SetVersion sets the version requirement, stripping build metadata.
func (s *PathSource) SetVersion(version string) *PathSource {
	version, _, _ = strings.Cut(version, "+")
	s.Version = &version
	return s
}

func (s *PathSource) String() string     { return s.Path }
func (s *PathSource) sourceKind() string { return "path" }

// GitSource is a dependency fetched from a git repository, optionally
// pinned to a branch, tag, or revision. At most one reference field is
// set; assigning one clears the others.
type GitSource struct {
	URL    string
	Branch *string
	Tag    *string
	Rev    *string
}

// NewGitSource creates a git source tracking the default branch.
func NewGitSource(url string) *GitSource {
	return &GitSource{URL: url}
}

// SetBranch pins the source to a branch, clearing any tag or rev.
func (s *GitSource) SetBranch(branch string) *GitSource {
	s.Branch, s.Tag, s.Rev = &branch, nil, nil
	return s
}

// SetTag pins the source to a tag, clearing any branch or rev.
func (s *GitSource) SetTag(tag string) *GitSource {
	s.Branch, s.Tag, s.Rev = nil, &tag, nil
	return s
}

// SetRev pins the source to a revision, clearing any branch or tag.
func (s *GitSource) SetRev(rev string) *GitSource {
	s.Branch, s.Tag, s.Rev = nil, nil, &rev
	return s
}

// GitRefKind identifies which kind of git reference a source pins.
type GitRefKind int

const (
	GitRefDefaultBranch GitRefKind = iota
	GitRefBranch
	GitRefTag
	GitRefRev
)

// GitRef is the reference descriptor handed to the fetch collaborator.
type GitRef struct {
	Kind  GitRefKind
	Value string // empty for GitRefDefaultBranch
}

// Ref returns the reference descriptor for the source, with priority
// branch > tag > rev > default branch.
func (s *GitSource) Ref() GitRef {
	switch {
	case s.Branch != nil:
		return GitRef{Kind: GitRefBranch, Value: *s.Branch}
	case s.Tag != nil:
		return GitRef{Kind: GitRefTag, Value: *s.Tag}
	case s.Rev != nil:
		return GitRef{Kind: GitRefRev, Value: *s.Rev}
	}
	return GitRef{Kind: GitRefDefaultBranch}
}

func (s *GitSource) String() string {
	switch ref := s.Ref(); ref.Kind {
	case GitRefBranch:
		return s.URL + "?branch=" + ref.Value
	case GitRefTag:
		return s.URL + "?tag=" + ref.Value
	case GitRefRev:
		return s.URL + "?rev=" + ref.Value
	}
	return s.URL
}

func (s *GitSource) sourceKind() string { return "git" }
