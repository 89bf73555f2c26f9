package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/wippyai/modkit/errors"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, fs afero.Fs, args ...string) cliResult {
	t.Helper()
	a := newApp(fs)
	var stdout, stderr bytes.Buffer
	a.stdout, a.stderr = &stdout, &stderr

	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{"--root", "/project"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func projectFs(t *testing.T, extra map[string]string) afero.Fs {
	t.Helper()
	files := map[string]string{
		"/project/src/main.ts":                  "import { a } from './util';\nconsole.log(a);\n",
		"/project/src/util.ts":                  "export const a: number = 1;\n",
		"/project/node_modules/dep/package.json": `{"name":"dep","main":"lib.js"}`,
		"/project/node_modules/dep/lib.js":       "",
	}
	for k, v := range extra {
		files[k] = v
	}
	return memFs(t, files)
}

func TestResolveCmd(t *testing.T) {
	res := runCLI(t, projectFs(t, nil), "resolve", "./util", "--from", "src/main.ts")
	require.NoError(t, res.err)
	assert.Equal(t, "src/util.ts\n", res.stdout)
}

func TestResolveCmd_Many(t *testing.T) {
	res := runCLI(t, projectFs(t, nil), "resolve", "fs", "dep", "./src/util")
	require.NoError(t, res.err)
	assert.Equal(t, "fs\tnode:fs\ndep\tnode_modules/dep/lib.js\n./src/util\tsrc/util.ts\n", res.stdout)
}

func TestResolveCmd_ProjectAlias(t *testing.T) {
	fs := projectFs(t, map[string]string{
		"/project/modkit.yaml": "resolver:\n  alias:\n    \"@app\": ./src\n",
	})
	res := runCLI(t, fs, "resolve", "@app/util")
	require.NoError(t, res.err)
	assert.Equal(t, "src/util.ts\n", res.stdout)
}

func TestResolveCmd_NotFound(t *testing.T) {
	res := runCLI(t, projectFs(t, nil), "resolve", "./missing")
	assert.ErrorIs(t, res.err, kerrors.ErrResolutionNotFound)
}

func TestResolveCmd_BadType(t *testing.T) {
	res := runCLI(t, projectFs(t, nil), "resolve", "dep", "--type", "amd")
	assert.ErrorIs(t, res.err, kerrors.ErrInvalidConfig)
}

func TestTranspileCmd_Stdout(t *testing.T) {
	res := runCLI(t, projectFs(t, nil), "transpile", "src/util.ts")
	require.NoError(t, res.err)
	assert.Equal(t, "export const a = 1;\n", res.stdout)
	assert.Contains(t, res.stderr, "src/util.ts")
}

func TestTranspileCmd_ResolveImports(t *testing.T) {
	res := runCLI(t, projectFs(t, nil), "transpile", "src/main.ts", "--resolve-imports")
	require.NoError(t, res.err)
	assert.Equal(t, "import { a } from 'src/util.ts';\nconsole.log(a);\n", res.stdout)
}

func TestTranspileCmd_ImportPrefix(t *testing.T) {
	res := runCLI(t, projectFs(t, nil), "transpile", "src/main.ts", "--resolve-imports", "--import-prefix", "/")
	require.NoError(t, res.err)
	assert.Equal(t, "import { a } from '/src/util.ts';\nconsole.log(a);\n", res.stdout)
}

func TestTranspileCmd_JSX(t *testing.T) {
	fs := projectFs(t, map[string]string{"/project/view.tsx": "export const v = <b>hi</b>;\n"})

	res := runCLI(t, fs, "transpile", "view.tsx", "--jsx-factory", "h")
	require.NoError(t, res.err)
	assert.Equal(t, "export const v = h(\"b\", null, \"hi\");\n", res.stdout)

	res = runCLI(t, fs, "transpile", "view.tsx", "--jsx", "preserve")
	require.NoError(t, res.err)
	assert.Equal(t, "export const v = <b>hi</b>;\n", res.stdout)
}

func TestTranspileCmd_Replace(t *testing.T) {
	fs := projectFs(t, map[string]string{"/project/flag.ts": "if (DEBUG) run();\n"})
	res := runCLI(t, fs, "transpile", "flag.ts", "--replace", "DEBUG=false")
	require.NoError(t, res.err)
	assert.Equal(t, "if (false) run();\n", res.stdout)
}

func TestTranspileCmd_OutDir(t *testing.T) {
	fs := projectFs(t, map[string]string{"/project/src/esm.mts": "export const b: string = 'b';\n"})
	res := runCLI(t, fs, "transpile", "src/main.ts", "src/util.ts", "src/esm.mts", "--out-dir", "dist", "--jobs", "2")
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)

	for _, p := range []string{"/project/dist/src/main.js", "/project/dist/src/util.js", "/project/dist/src/esm.mjs"} {
		ok, err := afero.Exists(fs, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
	data, err := afero.ReadFile(fs, "/project/dist/src/util.js")
	require.NoError(t, err)
	assert.Equal(t, "export const a = 1;\n", string(data))
	assert.Contains(t, res.stderr, "dist/src/esm.mjs")
}

func TestTranspileCmd_OutDirFromProjectFile(t *testing.T) {
	fs := projectFs(t, map[string]string{"/project/modkit.yaml": "outDir: build\n"})
	res := runCLI(t, fs, "transpile", "src/main.ts", "src/util.ts")
	require.NoError(t, res.err)

	ok, err := afero.Exists(fs, "/project/build/src/util.js")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTranspileCmd_ManyFilesNeedOutDir(t *testing.T) {
	res := runCLI(t, projectFs(t, nil), "transpile", "src/main.ts", "src/util.ts")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "--out-dir")
}

func TestTranspileCmd_Strict(t *testing.T) {
	fs := projectFs(t, map[string]string{"/project/bad.ts": "import x from './missing';\n"})

	res := runCLI(t, fs, "transpile", "bad.ts", "--resolve-imports")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, `"./missing"`)

	res = runCLI(t, fs, "transpile", "bad.ts", "--resolve-imports", "--strict")
	var unresolved *kerrors.UnresolvedImportsError
	require.ErrorAs(t, res.err, &unresolved)
	require.Len(t, unresolved.Imports, 1)
	assert.Equal(t, "./missing", unresolved.Imports[0].Specifier)
	assert.Equal(t, 1, unresolved.Imports[0].Line)
}

func TestTranspileCmd_Unsupported(t *testing.T) {
	fs := projectFs(t, map[string]string{"/project/assign.ts": "export = 1;\n"})
	res := runCLI(t, fs, "transpile", "assign.ts")
	assert.ErrorIs(t, res.err, kerrors.ErrUnsupportedSyntax)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		file   string
		outDir string
		want   string
	}{
		{file: "src/a.ts", outDir: "dist", want: "/project/dist/src/a.js"},
		{file: "/project/src/a.tsx", outDir: "dist", want: "/project/dist/src/a.js"},
		{file: "b.mts", outDir: "/out", want: "/out/b.mjs"},
		{file: "c.cts", outDir: "dist", want: "/project/dist/c.cjs"},
		{file: "d.mjs", outDir: "dist", want: "/project/dist/d.mjs"},
		{file: "/elsewhere/e.ts", outDir: "dist", want: "/project/dist/e.js"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPath("/project", tt.outDir, tt.file))
		})
	}
}
