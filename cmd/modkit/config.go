package main

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/resolver"
	"github.com/wippyai/modkit/transpiler"
)

// configNames are probed in the project root, in order, when --config is
// not given.
var configNames = []string{"modkit.yaml", "modkit.yml", "modkit.json", "modkit.toml"}

// projectConfig is the project file. Resolver is the default resolver
// config; Transpiler.Resolver is merged on top of it.
type projectConfig struct {
	Resolver   resolver.Config   `yaml:"resolver" toml:"resolver"`
	Transpiler transpiler.Config `yaml:"transpiler" toml:"transpiler"`
	OutDir     string            `yaml:"outDir" toml:"outDir"`
	Jobs       int               `yaml:"jobs" toml:"jobs"`
}

// loadProjectConfig reads path, or the first config file found in root when
// path is empty. A missing file in root is not an error.
func loadProjectConfig(fs afero.Fs, root, path string) (projectConfig, string, error) {
	var cfg projectConfig

	if path == "" {
		for _, name := range configNames {
			p := filepath.Join(root, name)
			if ok, _ := afero.Exists(fs, p); ok {
				path = p
				break
			}
		}
		if path == "" {
			return cfg, "", nil
		}
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, path, errors.ReadFailed(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml", ".json":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if err != nil && len(bytes.TrimSpace(data)) == 0 {
			err = nil
		}
	default:
		return cfg, path, errors.InvalidConfig("config", path, "unknown config format")
	}
	if err != nil {
		return cfg, path, errors.Wrap(errors.PhaseConfig, errors.KindInvalidConfig, err, path)
	}

	if err := cfg.Resolver.Validate(); err != nil {
		return cfg, path, err
	}
	if err := cfg.Transpiler.Validate(); err != nil {
		return cfg, path, err
	}
	return cfg, path, nil
}
