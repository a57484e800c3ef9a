package workspace

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cratemod/pkg/errors"
)

type cargoConfig struct {
	Registries map[string]struct {
		Index string `toml:"index"`
	} `toml:"registries"`
}

// HasRegistry reports whether the named alternate registry is declared
// in a cargo config reachable from dir. Like cargo, it checks
// `.cargo/config.toml` (and the legacy `.cargo/config`) in dir and each
// ancestor, then in `$CARGO_HOME` or `~/.cargo`.
func HasRegistry(dir, name string) (bool, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInvalidPath, err, "unable to resolve %s", dir)
	}

	for {
		ok, err := configHasRegistry(filepath.Join(dir, ".cargo"), name)
		if err != nil || ok {
			return ok, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	cargoHome := os.Getenv("CARGO_HOME")
	if cargoHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return false, nil
		}
		cargoHome = filepath.Join(home, ".cargo")
	}
	return configHasRegistry(cargoHome, name)
}

func configHasRegistry(cargoDir, name string) (bool, error) {
	for _, file := range []string{"config.toml", "config"} {
		path := filepath.Join(cargoDir, file)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var config cargoConfig
		if err := toml.Unmarshal(data, &config); err != nil {
			return false, errors.Wrap(errors.ErrCodeManifestParse, err, "unable to parse %s", path)
		}
		if _, ok := config.Registries[name]; ok {
			return true, nil
		}
	}
	return false, nil
}
