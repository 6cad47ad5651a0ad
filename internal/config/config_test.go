package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromPath(t *testing.T) {
	// Test plan:
	// - every field set explicitly
	// - defaults for a minimal file
	// - validation failures

	t.Run("all fields", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, `{
  "name": "pendulum-fmu",
  "model": "models/pendulum.yaml",
  "target": "python",
  "types": "/etc/dtig/types.yaml",
  "maxDepth": 8,
  "parallelism": 3,
  "templates": [
    {"source": "templates/model.py.dtig", "output": "gen/model.py"}
  ],
  "vars": {"NS": "sim"},
  "watch": {"exclude": ["*.bak"]}
}`)

		cfg, err := LoadFromPath(path)
		require.NoError(t, err)

		assert.Equal(t, "pendulum-fmu", cfg.Name)
		assert.Equal(t, filepath.Join(dir, "models", "pendulum.yaml"), cfg.Model)
		assert.Equal(t, "python", cfg.Target)
		assert.Equal(t, "/etc/dtig/types.yaml", cfg.Types)
		assert.Equal(t, 8, cfg.MaxDepth)
		assert.Equal(t, 3, cfg.Parallelism)
		assert.Equal(t, []Template{{
			Source: filepath.Join(dir, "templates", "model.py.dtig"),
			Output: filepath.Join(dir, "gen", "model.py"),
		}}, cfg.Templates)
		assert.Equal(t, map[string]string{"NS": "sim"}, cfg.Vars)
		assert.Equal(t, []string{"*.bak"}, cfg.Watch.Exclude)
		assert.Equal(t, dir, cfg.Dir)
	})

	t.Run("defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, `{"model": "m.json", "templates": [{"source": "src/server.cpp.dtig"}, {"source": "plain.txt"}]}`)

		cfg, err := LoadFromPath(path)
		require.NoError(t, err)

		assert.Equal(t, filepath.Base(dir), cfg.Name)
		assert.Equal(t, DefaultTarget, cfg.Target)
		assert.Empty(t, cfg.Types)
		assert.Equal(t, DefaultMaxDepth, cfg.MaxDepth)
		assert.Equal(t, runtime.NumCPU(), cfg.Parallelism)
		assert.Equal(t, DefaultExclude, cfg.Watch.Exclude)
		assert.Equal(t, filepath.Join(dir, "build", "server.cpp"), cfg.Templates[0].Output)
		assert.Equal(t, filepath.Join(dir, "build", "plain.txt"), cfg.Templates[1].Output)
	})

	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{"malformed json", `{"model": `, "failed to parse config file"},
		{"missing model", `{"templates": [{"source": "a.dtig"}]}`, "model is required"},
		{"no templates", `{"model": "m.json"}`, "at least one template is required"},
		{"template without source", `{"model": "m.json", "templates": [{"output": "x"}]}`, "templates[0]: source is required"},
		{"negative depth", `{"model": "m.json", "templates": [{"source": "a"}], "maxDepth": -1}`, "maxDepth must not be negative"},
		{"negative parallelism", `{"model": "m.json", "templates": [{"source": "a"}], "parallelism": -2}`, "parallelism must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadFromPath(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromPath(filepath.Join(t.TempDir(), FileName))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestLoadFromDir(t *testing.T) {
	// Test: the project file is found from a nested directory
	root := t.TempDir()
	writeConfig(t, root, `{"model": "m.json", "templates": [{"source": "a.dtig"}]}`)
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))

	cfg, err := LoadFromDir(nested)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Dir)
	assert.Equal(t, filepath.Join(root, "a.dtig"), cfg.Templates[0].Source)

	_, err = LoadFromDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dtig.json found")
}

func TestLoad(t *testing.T) {
	// Test: Load starts from the working directory
	dir := t.TempDir()
	writeConfig(t, dir, `{"model": "m.json", "templates": [{"source": "a.dtig"}]}`)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Dir, "m.json"), cfg.Model)
}

func TestConfig_PathAndFiles(t *testing.T) {
	cfg := &Config{
		Dir:   "/proj",
		Model: "/proj/m.json",
		Types: "/proj/types.yaml",
		Templates: []Template{
			{Source: "/proj/a.dtig", Output: "/proj/build/a"},
		},
	}
	assert.Equal(t, "/proj/x/y", cfg.Path("x/y"))
	assert.Equal(t, "/abs/z", cfg.Path("/abs/./z"))
	assert.Equal(t, []string{"/proj/m.json", "/proj/types.yaml", "/proj/a.dtig"}, cfg.Files())

	cfg.Types = ""
	assert.Equal(t, []string{"/proj/m.json", "/proj/a.dtig"}, cfg.Files())
}
