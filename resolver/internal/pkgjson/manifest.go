// Package pkgjson models the subset of package.json that module resolution reads.
package pkgjson

import (
	"encoding/json"
	"fmt"
)

// FileName is the manifest file name.
const FileName = "package.json"

// Manifest is a decoded package.json.
type Manifest struct {
	// Exports is the decoded "exports" value: string, []any, map[string]any or nil.
	Exports any
	// Imports is the decoded "imports" value.
	Imports    any
	Name       string
	Main       string
	Module     string
	HasExports bool
	HasImports bool
}

type rawManifest struct {
	Exports json.RawMessage `json:"exports"`
	Imports json.RawMessage `json:"imports"`
	Name    string          `json:"name"`
	Main    any             `json:"main"`
	Module  any             `json:"module"`
}

// Parse decodes a manifest. Unknown fields are ignored; non-string main and
// module values are treated as absent.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FileName, err)
	}

	m := &Manifest{
		Name: raw.Name,
	}
	m.Main, _ = raw.Main.(string)
	m.Module, _ = raw.Module.(string)

	if len(raw.Exports) > 0 {
		if err := json.Unmarshal(raw.Exports, &m.Exports); err != nil {
			return nil, fmt.Errorf("decode exports: %w", err)
		}
		m.HasExports = m.Exports != nil
	}
	if len(raw.Imports) > 0 {
		if err := json.Unmarshal(raw.Imports, &m.Imports); err != nil {
			return nil, fmt.Errorf("decode imports: %w", err)
		}
		_, m.HasImports = m.Imports.(map[string]any)
	}
	return m, nil
}
