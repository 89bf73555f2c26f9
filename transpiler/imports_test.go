package transpiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/resolver"
)

func importFixture(t *testing.T) (*Transpiler, *resolver.Resolver) {
	t.Helper()
	fs := newFs(t, map[string]string{
		"/project/src/util.ts":                   "export const a = 1",
		"/project/src/lib/index.tsx":             "export default 1",
		"/project/node_modules/dep/package.json": `{"name":"dep","exports":{".":{"import":"./esm.js","require":"./cjs.js"}}}`,
		"/project/node_modules/dep/esm.js":       "",
		"/project/node_modules/dep/cjs.js":       "",
		"/project/app/root.tsx":                  "",
	})
	cfg := resolver.Config{
		Alias:    map[string]string{"~": "./app"},
		External: []string{"react"},
	}
	r, err := resolver.New(root, cfg, resolver.WithFs(fs))
	require.NoError(t, err)

	tr := newTranspiler(t, Config{ResolveImport: true}, WithResolver(r), WithFs(fs))
	return tr, r
}

func TestTranspile_RewriteImports(t *testing.T) {
	tr, _ := importFixture(t)

	src := `import { a } from './util';
import type { T } from './types';
import dep from "dep";
import React from 'react';
import Root from '~/root.tsx';
export * from './lib';
const lazy = import('./util');
`
	res := transpile(t, tr, src, "src/main.ts")

	want := `import { a } from 'src/util.ts';

import dep from "node_modules/dep/esm.js";
import React from 'react';
import Root from 'app/root.tsx';
export * from 'src/lib/index.tsx';
const lazy = import('src/util.ts');
`
	assert.Equal(t, want, res.Code)

	require.Len(t, res.Imports, 6)
	assert.Equal(t, ImportRewrite{Specifier: "./util", Resolved: "src/util.ts", Status: Resolved, Line: 1, Column: 19}, res.Imports[0])
	assert.Equal(t, External, res.Imports[2].Status)
	assert.Equal(t, "react", res.Imports[2].Resolved)
	assert.True(t, res.Imports[5].Dynamic)
	assert.Empty(t, res.Unresolved())
}

func TestTranspile_RewriteMatchesResolve(t *testing.T) {
	tr, r := importFixture(t)

	src := "import a from './util';\nimport d from 'dep';\nimport x from '~/root.tsx';\nexport { default } from './lib';\n"
	res := transpile(t, tr, src, "/project/src/main.ts")

	for _, imp := range res.Imports {
		want, err := r.Resolve(imp.Specifier, "/project/src/main.ts", resolver.Import)
		require.NoError(t, err)
		assert.Equal(t, want.Path, imp.Resolved)
		assert.Contains(t, res.Code, "'"+want.Path+"'")
	}
}

func TestTranspile_UnresolvedImportsSoftFail(t *testing.T) {
	tr, _ := importFixture(t)

	src := "import a from './missing';\nimport v from 'virtual:polyfill';\nimport u from './util';\n"
	res := transpile(t, tr, src, "src/main.ts")

	assert.Equal(t, "import a from './missing';\nimport v from 'virtual:polyfill';\nimport u from 'src/util.ts';\n", res.Code)

	unresolved := res.Unresolved()
	require.Len(t, unresolved, 2)
	for _, imp := range unresolved {
		assert.Equal(t, Unchanged, imp.Status)
		assert.Equal(t, imp.Specifier, imp.Resolved)
		assert.ErrorIs(t, imp.Err, kerrors.ErrResolutionNotFound)
	}
	assert.Equal(t, 2, unresolved[1].Line)
	assert.Equal(t, 15, unresolved[1].Column)
}

func TestTranspile_InlineReferrerIsRoot(t *testing.T) {
	tr, _ := importFixture(t)

	res := transpile(t, tr, "import a from './src/util';", "")
	assert.Equal(t, "import a from 'src/util.ts';", res.Code)
}

func TestTranspile_ImportPrefix(t *testing.T) {
	_, r := importFixture(t)
	tr := newTranspiler(t, Config{ResolveImport: true, ImportPrefix: "/"}, WithResolver(r))

	src := "import { a } from './util';\nimport fs from 'node:fs';\nimport React from 'react';\n"
	res := transpile(t, tr, src, "src/main.ts")
	assert.Equal(t, "import { a } from '/src/util.ts';\nimport fs from 'node:fs';\nimport React from 'react';\n", res.Code)
	assert.Equal(t, "/src/util.ts", res.Imports[0].Resolved)
	assert.Equal(t, "node:fs", res.Imports[1].Resolved)

	// a prefixed path still resolves to the same file from anywhere
	back, err := r.Resolve(res.Imports[0].Resolved, "/project/app/root.tsx", resolver.Import)
	require.NoError(t, err)
	assert.Equal(t, "src/util.ts", back.Path)
}

func TestTranspile_ResolverFromConfig(t *testing.T) {
	fs := newFs(t, map[string]string{"/project/src/util.ts": ""})
	tr := newTranspiler(t, Config{ResolveImport: true, Resolver: &resolver.Config{}}, WithFs(fs))
	require.NotNil(t, tr.Resolver())

	res, err := tr.TranspileCode(context.Background(), `import "./util"`, "src/x.ts")
	require.NoError(t, err)
	assert.Equal(t, `import "src/util.ts"`, res.Code)
}

func TestTranspile_ImportsNotRecordedWhenDisabled(t *testing.T) {
	tr := newTranspiler(t, Config{})
	res := transpile(t, tr, "import a from './util';", "x.ts")
	assert.Nil(t, res.Imports)
	assert.Equal(t, "import a from './util';", res.Code)
}

func TestQuoteInner(t *testing.T) {
	assert.Equal(t, "a/b.js", quoteInner("a/b.js", '\''))
	assert.Equal(t, `it\'s.js`, quoteInner("it's.js", '\''))
	assert.Equal(t, `it's.js`, quoteInner("it's.js", '"'))
	assert.Equal(t, `it's.js`, unquote(`it\'s.js`))
}
