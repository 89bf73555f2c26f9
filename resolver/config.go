package resolver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wippyai/modkit/errors"
)

// ResolutionType selects between CommonJS and ESM resolution rules.
type ResolutionType uint8

const (
	Require ResolutionType = iota
	Import
)

func (t ResolutionType) String() string {
	switch t {
	case Require:
		return "Require"
	case Import:
		return "Import"
	default:
		return fmt.Sprintf("ResolutionType(%d)", uint8(t))
	}
}

// ParseResolutionType accepts "require" or "import" in any case.
func ParseResolutionType(s string) (ResolutionType, error) {
	switch strings.ToLower(s) {
	case "require", "cjs":
		return Require, nil
	case "import", "esm":
		return Import, nil
	}
	return 0, errors.InvalidConfig("type", s, "expected require or import")
}

// Config is the immutable configuration of a Resolver.
type Config struct {
	// Alias maps a specifier or specifier prefix to a replacement.
	// Values starting with "." or "/" are paths relative to the project root.
	Alias map[string]string `json:"alias,omitempty" yaml:"alias,omitempty" toml:"alias,omitempty" mapstructure:"alias"`
	// Conditions are the caller's exports conditions, most preferred first.
	Conditions []string `json:"conditions,omitempty" yaml:"conditions,omitempty" toml:"conditions,omitempty" mapstructure:"conditions"`
	// Dedupe lists packages always resolved from the root node_modules.
	Dedupe []string `json:"dedupe,omitempty" yaml:"dedupe,omitempty" toml:"dedupe,omitempty" mapstructure:"dedupe"`
	// External lists specifiers returned unchanged without probing.
	External []string `json:"external,omitempty" yaml:"external,omitempty" toml:"external,omitempty" mapstructure:"external"`
	// PreserveSymlink keeps symlinked paths as found instead of their real path.
	PreserveSymlink bool `json:"preserveSymlink,omitempty" yaml:"preserveSymlink,omitempty" toml:"preserveSymlink,omitempty" mapstructure:"preserveSymlink"`
}

// Validate checks alias, dedupe and external entries.
func (c *Config) Validate() error {
	for k, v := range c.Alias {
		if strings.TrimSpace(k) == "" {
			return errors.InvalidConfig("alias", k, "empty key")
		}
		if strings.TrimSpace(v) == "" {
			return errors.InvalidConfig("alias", k, "empty value for key "+k)
		}
		if strings.HasSuffix(k, "/") {
			return errors.InvalidConfig("alias", k, "key must not end with /")
		}
	}
	for _, cond := range c.Conditions {
		if cond == "" {
			return errors.InvalidConfig("conditions", cond, "empty condition")
		}
	}
	for _, d := range c.Dedupe {
		if !isPackageName(d) {
			return errors.InvalidConfig("dedupe", d, "not a package name")
		}
	}
	for _, e := range c.External {
		if strings.TrimSpace(e) == "" {
			return errors.InvalidConfig("external", e, "empty entry")
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	if c.Alias != nil {
		out.Alias = make(map[string]string, len(c.Alias))
		for k, v := range c.Alias {
			out.Alias[k] = v
		}
	}
	out.Conditions = slices.Clone(c.Conditions)
	out.Dedupe = slices.Clone(c.Dedupe)
	out.External = slices.Clone(c.External)
	return out
}

// Merge overlays o on top of c. Aliases from o win; lists are unioned with
// c's entries first; PreserveSymlink is set if either sets it. Conditions from
// o replace c's when non-empty.
func (c Config) Merge(o Config) Config {
	out := c.Clone()
	if len(o.Alias) > 0 && out.Alias == nil {
		out.Alias = make(map[string]string, len(o.Alias))
	}
	for k, v := range o.Alias {
		out.Alias[k] = v
	}
	if len(o.Conditions) > 0 {
		out.Conditions = slices.Clone(o.Conditions)
	}
	out.Dedupe = union(out.Dedupe, o.Dedupe)
	out.External = union(out.External, o.External)
	out.PreserveSymlink = c.PreserveSymlink || o.PreserveSymlink
	return out
}

func union(a, b []string) []string {
	for _, s := range b {
		if !slices.Contains(a, s) {
			a = append(a, s)
		}
	}
	return a
}

// effectiveConditions builds the exports condition list for a resolution type.
func (c *Config) effectiveConditions(t ResolutionType) []string {
	base := c.Conditions
	if len(base) == 0 {
		base = []string{"node"}
	}
	out := make([]string, 0, len(base)+2)
	for _, s := range base {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	kind := "require"
	if t == Import {
		kind = "import"
	}
	for _, s := range []string{kind, "default"} {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
