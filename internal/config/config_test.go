package config_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeline-doc/internal/config"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "  ", cfg.IndentString())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		mutate func(c *config.Config)
		ok     bool
	}{
		"nirs4all dialect": {mutate: func(c *config.Config) { c.Dialect = "nirs4all" }, ok: true},
		"yaml output":      {mutate: func(c *config.Config) { c.Output.Format = "yaml" }, ok: true},
		"debug level":      {mutate: func(c *config.Config) { c.Log.Level = "debug" }, ok: true},
		"unknown dialect":  {mutate: func(c *config.Config) { c.Dialect = "python" }},
		"unknown level":    {mutate: func(c *config.Config) { c.Log.Level = "loud" }},
		"unknown format":   {mutate: func(c *config.Config) { c.Output.Format = "toml" }},
		"huge indent":      {mutate: func(c *config.Config) { c.Output.Indent = 12 }},
		"no workers":       {mutate: func(c *config.Config) { c.Batch.Concurrency = 0 }},
		"bad pattern":      {mutate: func(c *config.Config) { c.Library.Pattern = "[*.json" }},
		"negative delay":   {mutate: func(c *config.Config) { c.Library.Debounce = -time.Second }},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestIndentString(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Output.Indent = 4
	assert.Equal(t, "    ", cfg.IndentString())

	cfg.Output.Compact = true
	assert.Equal(t, "", cfg.IndentString())
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipedoc.yaml")
	writeFile(t, path, "dialect: nirs4all\nlibrary:\n  dir: /srv/pipelines\n")

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nirs4all", cfg.Dialect)
	assert.Equal(t, "/srv/pipelines", cfg.Library.Dir)
	assert.Equal(t, config.DefaultConfig().Library.Pattern, cfg.Library.Pattern)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	writeFile(t, path, "library: [")
	_, err = config.LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.DefaultConfig()
	cfg.Markers = []string{"chart_2d", "fold_chart"}
	cfg.Batch.Concurrency = 3
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Merge(nil))
	require.NoError(t, cfg.Merge(&config.Config{
		Markers: []string{"chart_2d"},
		Log:     config.LogConfig{Level: "debug"},
	}))

	assert.Equal(t, []string{"chart_2d"}, cfg.Markers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "pipelines", cfg.Library.Dir)
}

func TestLoaderLayers(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	project := t.TempDir()
	work := filepath.Join(project, "experiments", "week1")
	require.NoError(t, os.MkdirAll(work, 0o755))

	writeFile(t, filepath.Join(home, config.UserConfigDir, config.UserConfigFile),
		"log:\n  level: warn\nbatch:\n  concurrency: 2\nlibrary:\n  dir: from-user\n")
	writeFile(t, filepath.Join(project, config.ProjectConfigFile),
		"library:\n  dir: from-project\noutput:\n  format: yaml\n")

	loader := config.NewLoader(quiet, config.WithHomeDir(home), config.WithWorkDir(work))

	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
	assert.Equal(t, "from-project", cfg.Library.Dir)
	assert.Equal(t, "yaml", cfg.Output.Format)

	explicit := filepath.Join(t.TempDir(), "ci.yaml")
	writeFile(t, explicit, "batch:\n  concurrency: 8\n")

	cfg, err = loader.Load(explicit)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.Equal(t, "from-project", cfg.Library.Dir)
}

func TestLoaderWithoutFiles(t *testing.T) {
	t.Parallel()

	loader := config.NewLoader(quiet, config.WithHomeDir(t.TempDir()), config.WithWorkDir(t.TempDir()))

	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = loader.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoaderRejectsInvalid(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	writeFile(t, filepath.Join(work, config.ProjectConfigFile), "dialect: perl\n")

	_, err := config.NewLoader(quiet, config.WithHomeDir(t.TempDir()), config.WithWorkDir(work)).Load("")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestEnsureUserConfig(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	loader := config.NewLoader(quiet, config.WithHomeDir(home))

	path, err := loader.EnsureUserConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, config.UserConfigDir, config.UserConfigFile), path)

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	again, err := loader.EnsureUserConfig()
	require.NoError(t, err)
	assert.Equal(t, path, again)
}
