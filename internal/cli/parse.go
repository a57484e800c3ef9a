package cli

import (
	"strings"

	"github.com/matzehuels/cratemod/pkg/errors"
)

// parseCrateSpec splits a `name[@req]` argument into the crate name and
// the optional version requirement.
func parseCrateSpec(spec string) (name, req string, err error) {
	name, req, hasReq := strings.Cut(spec, "@")
	if name == "" {
		return "", "", errors.New(errors.ErrCodeInvalidSpec, "invalid crate specification `%s`: missing crate name", spec)
	}
	if hasReq && req == "" {
		return "", "", errors.New(errors.ErrCodeInvalidSpec, "invalid crate specification `%s`: missing version requirement after `@`", spec)
	}
	if err := validateCrateName(name); err != nil {
		return "", "", err
	}
	return name, req, nil
}

// validateCrateName enforces the character set cargo allows for package
// names: alphanumerics, `-` and `_`, starting with a letter or digit.
func validateCrateName(name string) error {
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case (r == '-' || r == '_') && i > 0:
		default:
			return errors.New(errors.ErrCodeInvalidCrate, "invalid character `%c` in crate name `%s`", r, name)
		}
	}
	return nil
}

// splitFeatures expands repeatable --features values, each of which may
// hold several feature names separated by commas or spaces.
func splitFeatures(values []string) []string {
	var features []string
	for _, value := range values {
		for _, f := range strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' '
		}) {
			if f != "" {
				features = append(features, f)
			}
		}
	}
	return features
}
