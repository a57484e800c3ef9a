package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateCrateName validates a crates.io package name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - Maximum length of 64 characters (the registry limit)
//   - Must start with a letter or underscore, followed by letters,
//     digits, hyphens, or underscores
func ValidateCrateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidCrate, "crate name cannot be empty")
	}

	if len(name) > 64 {
		return New(ErrCodeInvalidCrate, "crate name too long (max 64 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCrate, "crate name contains invalid control characters")
		}
	}

	if !crateNameRegex.MatchString(name) {
		return New(ErrCodeInvalidCrate, "invalid crate name: %q", name)
	}

	return nil
}

// crateNameRegex matches valid crates.io package names.
var crateNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// ValidateFeatureName validates a cargo feature name or feature request.
// Accepts plain names, explicit activations (dep:name), and sub-feature
// references (name/sub or name?/sub).
func ValidateFeatureName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "feature name cannot be empty")
	}

	for _, r := range name {
		if unicode.IsControl(r) || r == ' ' {
			return New(ErrCodeInvalidInput, "feature name contains invalid characters: %q", name)
		}
	}

	if !featureNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid feature name: %q", name)
	}

	return nil
}

// featureNameRegex matches plain, dep:, and dep/sub feature forms.
var featureNameRegex = regexp.MustCompile(`^(dep:)?[a-zA-Z0-9_+.-]+(\??/[a-zA-Z0-9_+.-]+)?$`)

// ValidateRegistryName validates an alternate registry identifier.
// Registry names follow the same rules as crate names.
func ValidateRegistryName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "registry name cannot be empty")
	}

	if !crateNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid registry name: %q", name)
	}

	return nil
}

// ValidateGitURL validates a git repository URL.
// It accepts the transports git understands: http(s), git, ssh, and
// scp-style user@host:path addresses.
func ValidateGitURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "git URL cannot be empty")
	}

	for _, prefix := range []string{"http://", "https://", "git://", "ssh://"} {
		if strings.HasPrefix(rawURL, prefix) {
			return nil
		}
	}

	// scp-style: user@host:path
	if at := strings.IndexByte(rawURL, '@'); at > 0 && strings.IndexByte(rawURL[at:], ':') > 0 {
		return nil
	}

	return New(ErrCodeInvalidInput, "unsupported git URL: %q", rawURL)
}

// ValidateVersionReq performs a shallow sanity check on a version
// requirement string. Full semver-requirement parsing is left to the
// registry; this only rejects obviously malformed input early.
func ValidateVersionReq(req string) error {
	if req == "" {
		return New(ErrCodeInvalidSpec, "version requirement cannot be empty")
	}

	for _, r := range req {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSpec, "invalid version requirement: %q", req)
		}
	}

	return nil
}
