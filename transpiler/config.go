package transpiler

import (
	"regexp"
	"strings"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/resolver"
)

// SourceMapInline appends the source map to the code as a data URL comment.
const SourceMapInline = "inline"

// JSX modes.
const (
	// JSXReact lowers elements to factory calls. It is the default.
	JSXReact = "react"
	// JSXPreserve leaves JSX in the output.
	JSXPreserve = "preserve"
)

const (
	defaultJSXFactory  = "React.createElement"
	defaultJSXFragment = "React.Fragment"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Config is the immutable configuration of a Transpiler.
type Config struct {
	// Resolver configures the resolver built for import rewriting when none
	// is supplied with WithResolver.
	Resolver *resolver.Config `json:"resolver,omitempty" yaml:"resolver,omitempty" toml:"resolver,omitempty" mapstructure:"resolver"`
	// Replace maps identifiers or dotted member paths to raw replacement text.
	Replace map[string]string `json:"replace,omitempty" yaml:"replace,omitempty" toml:"replace,omitempty" mapstructure:"replace"`
	// SourceMap is SourceMapInline or empty.
	SourceMap string `json:"sourceMap,omitempty" yaml:"sourceMap,omitempty" toml:"sourceMap,omitempty" mapstructure:"sourceMap"`
	// ResolveImport rewrites import specifiers to resolved root-relative paths.
	ResolveImport bool `json:"resolveImport,omitempty" yaml:"resolveImport,omitempty" toml:"resolveImport,omitempty" mapstructure:"resolveImport"`
	// ImportPrefix is prepended to rewritten specifiers, e.g. "/" for
	// URL-style absolute paths. Builtins and externals are never prefixed.
	ImportPrefix string `json:"importPrefix,omitempty" yaml:"importPrefix,omitempty" toml:"importPrefix,omitempty" mapstructure:"importPrefix"`
	// JSX is JSXReact or JSXPreserve; empty means JSXReact.
	JSX string `json:"jsx,omitempty" yaml:"jsx,omitempty" toml:"jsx,omitempty" mapstructure:"jsx"`
	// JSXFactory names the element factory, React.createElement by default.
	JSXFactory string `json:"jsxFactory,omitempty" yaml:"jsxFactory,omitempty" toml:"jsxFactory,omitempty" mapstructure:"jsxFactory"`
	// JSXFragment names the fragment component, React.Fragment by default.
	JSXFragment string `json:"jsxFragment,omitempty" yaml:"jsxFragment,omitempty" toml:"jsxFragment,omitempty" mapstructure:"jsxFragment"`
}

// Validate checks the modes, replace keys, JSX names and the nested resolver config.
func (c *Config) Validate() error {
	switch c.SourceMap {
	case "", SourceMapInline:
	default:
		return errors.InvalidConfig("sourceMap", c.SourceMap, `expected "inline" or empty`)
	}
	switch c.JSX {
	case "", JSXReact, JSXPreserve:
	default:
		return errors.InvalidConfig("jsx", c.JSX, `expected "react", "preserve" or empty`)
	}
	if c.JSXFactory != "" && !isReplaceKey(c.JSXFactory) {
		return errors.InvalidConfig("jsxFactory", c.JSXFactory, "must be an identifier or dotted member path")
	}
	if c.JSXFragment != "" && !isReplaceKey(c.JSXFragment) {
		return errors.InvalidConfig("jsxFragment", c.JSXFragment, "must be an identifier or dotted member path")
	}
	if strings.ContainsAny(c.ImportPrefix, "'\"\\\n") {
		return errors.InvalidConfig("importPrefix", c.ImportPrefix, "must not contain quotes, backslashes or newlines")
	}
	for k, v := range c.Replace {
		if !isReplaceKey(k) {
			return errors.InvalidConfig("replace", k, "key must be an identifier or dotted member path")
		}
		if v == "" {
			return errors.InvalidConfig("replace", k, "empty value for key "+k)
		}
	}
	if c.Resolver != nil {
		return c.Resolver.Validate()
	}
	return nil
}

func (c *Config) jsxFactory() string {
	if c.JSXFactory == "" {
		return defaultJSXFactory
	}
	return c.JSXFactory
}

func (c *Config) jsxFragment() string {
	if c.JSXFragment == "" {
		return defaultJSXFragment
	}
	return c.JSXFragment
}

func (c Config) clone() Config {
	out := c
	if c.Resolver != nil {
		rc := c.Resolver.Clone()
		out.Resolver = &rc
	}
	if c.Replace != nil {
		out.Replace = make(map[string]string, len(c.Replace))
		for k, v := range c.Replace {
			out.Replace[k] = v
		}
	}
	return out
}

func isReplaceKey(k string) bool {
	if k == "" {
		return false
	}
	for _, seg := range strings.Split(k, ".") {
		if !identPattern.MatchString(seg) {
			return false
		}
	}
	return true
}
