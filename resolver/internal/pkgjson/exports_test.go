package pkgjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Manifest {
	t.Helper()
	m, err := Parse([]byte(src))
	require.NoError(t, err)
	return m
}

func TestParse(t *testing.T) {
	m := mustParse(t, `{"name":"pkg","main":"lib/index.js","module":"esm/index.js","type":"module","exports":"./x.js","imports":{"#a":"./a.js"}}`)
	assert.Equal(t, "pkg", m.Name)
	assert.Equal(t, "lib/index.js", m.Main)
	assert.Equal(t, "esm/index.js", m.Module)
	assert.True(t, m.HasExports)
	assert.True(t, m.HasImports)

	m = mustParse(t, `{"main": false, "exports": null}`)
	assert.Empty(t, m.Main)
	assert.False(t, m.HasExports)

	_, err := Parse([]byte(`{"main":`))
	require.Error(t, err)
}

func TestResolveExports(t *testing.T) {
	node := []string{"node", "import", "default"}
	req := []string{"node", "require", "default"}
	browser := []string{"browser", "import", "default"}

	tests := []struct {
		name       string
		exports    string
		subpath    string
		conditions []string
		want       string
		ok         bool
	}{
		{"string sugar", `"./index.js"`, ".", node, "./index.js", true},
		{"string sugar subpath miss", `"./index.js"`, "./x", node, "", false},
		{"array sugar", `["./a.js", "./b.js"]`, ".", node, "./a.js", true},
		{"condition sugar", `{"import":"./m.mjs","require":"./c.cjs"}`, ".", req, "./c.cjs", true},
		{"condition order follows list", `{"import":"./m.mjs","node":"./n.js"}`, ".", node, "./n.js", true},
		{"caller condition first", `{"default":"./d.js","browser":"./b.js"}`, ".", browser, "./b.js", true},
		{"exact subpath", `{".":"./i.js","./feature":"./f.js"}`, "./feature", node, "./f.js", true},
		{"nested conditions", `{".":{"node":{"import":"./ni.mjs","require":"./nr.cjs"},"default":"./d.js"}}`, ".", node, "./ni.mjs", true},
		{"nested falls through", `{".":{"node":{"worker":"./w.js"},"default":"./d.js"}}`, ".", node, "./d.js", true},
		{"no matching condition", `{".":{"worker":"./w.js"}}`, ".", node, "", false},
		{"pattern", `{"./features/*.js":"./src/features/*.js"}`, "./features/a/b.js", node, "./src/features/a/b.js", true},
		{"pattern with conditions", `{"./*":{"import":"./esm/*.mjs"}}`, "./util", node, "./esm/util.mjs", true},
		{"longest prefix wins", `{"./*":"./all/*","./internal/*":"./int/*"}`, "./internal/x", node, "./int/x", true},
		{"exact beats pattern", `{"./*":"./all/*","./x":"./exact.js"}`, "./x", node, "./exact.js", true},
		{"null excludes", `{"./*":"./all/*","./private/*":null}`, "./private/x", node, "", false},
		{"null condition excludes", `{".":{"node":null,"default":"./d.js"}}`, ".", node, "", false},
		{"invalid target", `{".":"index.js"}`, ".", node, "", false},
		{"escaping target", `{".":"./../x.js"}`, ".", node, "", false},
		{"array skips invalid", `{".":["bad", "./good.js"]}`, ".", node, "./good.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustParse(t, `{"exports":`+tt.exports+`}`)
			got, ok := ResolveExports(m.Exports, tt.subpath, tt.conditions)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveImports(t *testing.T) {
	m := mustParse(t, `{"imports":{
		"#dep": {"node": "dep-node-native", "default": "./dep-polyfill.js"},
		"#internal/*": "./src/internal/*.js",
		"#bad": "/abs.js"
	}}`)
	conds := []string{"node", "import", "default"}

	got, ok := ResolveImports(m.Imports, "#dep", conds)
	require.True(t, ok)
	assert.Equal(t, "dep-node-native", got)

	got, ok = ResolveImports(m.Imports, "#dep", []string{"browser", "default"})
	require.True(t, ok)
	assert.Equal(t, "./dep-polyfill.js", got)

	got, ok = ResolveImports(m.Imports, "#internal/a", conds)
	require.True(t, ok)
	assert.Equal(t, "./src/internal/a.js", got)

	_, ok = ResolveImports(m.Imports, "#bad", conds)
	assert.False(t, ok)

	_, ok = ResolveImports(m.Imports, "#missing", conds)
	assert.False(t, ok)

	_, ok = ResolveImports(m.Imports, "dep", conds)
	assert.False(t, ok)
}
