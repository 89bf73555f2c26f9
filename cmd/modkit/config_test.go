package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/wippyai/modkit/errors"
)

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/project", 0o755))
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestLoadProjectConfig(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "yaml",
			file: "/project/modkit.yaml",
			body: `resolver:
  alias:
    "@app": ./src
  conditions: [worker]
transpiler:
  resolveImport: true
  replace:
    DEBUG: "false"
outDir: dist
jobs: 2
`,
		},
		{
			name: "json",
			file: "/project/modkit.json",
			body: `{
  "resolver": {"alias": {"@app": "./src"}, "conditions": ["worker"]},
  "transpiler": {"resolveImport": true, "replace": {"DEBUG": "false"}},
  "outDir": "dist",
  "jobs": 2
}`,
		},
		{
			name: "toml",
			file: "/project/modkit.toml",
			body: `outDir = "dist"
jobs = 2

[resolver]
conditions = ["worker"]

[resolver.alias]
"@app" = "./src"

[transpiler]
resolveImport = true

[transpiler.replace]
DEBUG = "false"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memFs(t, map[string]string{tt.file: tt.body})

			cfg, path, err := loadProjectConfig(fs, "/project", "")
			require.NoError(t, err)
			assert.Equal(t, tt.file, path)
			assert.Equal(t, map[string]string{"@app": "./src"}, cfg.Resolver.Alias)
			assert.Equal(t, []string{"worker"}, cfg.Resolver.Conditions)
			assert.True(t, cfg.Transpiler.ResolveImport)
			assert.Equal(t, map[string]string{"DEBUG": "false"}, cfg.Transpiler.Replace)
			assert.Equal(t, "dist", cfg.OutDir)
			assert.Equal(t, 2, cfg.Jobs)
		})
	}
}

func TestLoadProjectConfig_Missing(t *testing.T) {
	cfg, path, err := loadProjectConfig(memFs(t, nil), "/project", "")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Zero(t, cfg.Jobs)
}

func TestLoadProjectConfig_Empty(t *testing.T) {
	fs := memFs(t, map[string]string{"/project/modkit.yml": "\n"})
	_, path, err := loadProjectConfig(fs, "/project", "")
	require.NoError(t, err)
	assert.Equal(t, "/project/modkit.yml", path)
}

func TestLoadProjectConfig_ExplicitPath(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/project/modkit.yaml":      "jobs: 1\n",
		"/project/conf/custom.toml": "jobs = 8\n",
	})
	cfg, path, err := loadProjectConfig(fs, "/project", "conf/custom.toml")
	require.NoError(t, err)
	assert.Equal(t, "/project/conf/custom.toml", path)
	assert.Equal(t, 8, cfg.Jobs)
}

func TestLoadProjectConfig_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		path  string
	}{
		{name: "unknown yaml field", files: map[string]string{"/project/modkit.yaml": "outdir: dist\n"}},
		{name: "unknown toml field", files: map[string]string{"/project/modkit.toml": "out_dir = \"dist\"\n"}},
		{name: "invalid source map", files: map[string]string{"/project/modkit.yaml": "transpiler:\n  sourceMap: external\n"}},
		{name: "invalid replace key", files: map[string]string{"/project/modkit.yaml": "transpiler:\n  replace:\n    \"a-b\": x\n"}},
		{name: "unknown format", files: map[string]string{"/project/modkit.ini": ""}, path: "modkit.ini"},
		{name: "missing explicit file", path: "nope.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memFs(t, tt.files)
			_, _, err := loadProjectConfig(fs, "/project", tt.path)
			require.Error(t, err)
		})
	}
}

func TestLoadProjectConfig_InvalidConfigKind(t *testing.T) {
	fs := memFs(t, map[string]string{"/project/modkit.yaml": "transpiler:\n  sourceMap: external\n"})
	_, _, err := loadProjectConfig(fs, "/project", "")
	assert.ErrorIs(t, err, kerrors.ErrInvalidConfig)
}
