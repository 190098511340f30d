package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeline-doc/internal/config"
	"github.com/askiada/go-pipeline-doc/internal/testsupport"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
)

type env struct {
	dir     string
	catalog string
	config  string
	library string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := t.TempDir()
	e := &env{
		dir:     dir,
		catalog: filepath.Join(dir, "components.json"),
		config:  filepath.Join(dir, "pipedoc-test.yaml"),
		library: filepath.Join(dir, "pipelines"),
	}

	require.NoError(t, os.WriteFile(e.catalog, testsupport.Catalog(), 0o644))

	cfg := config.DefaultConfig()
	cfg.Schema.Path = e.catalog
	cfg.Library.Dir = e.library
	cfg.Output.Compact = true
	cfg.Batch.Concurrency = 2
	require.NoError(t, cfg.SaveToFile(e.config))

	return e
}

func (e *env) write(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(e.dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// run executes the command line with isolated user and project configuration.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd(config.WithHomeDir(e.dir), config.WithWorkDir(e.dir))

	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, _, err := newEnv(t).run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "pipedoc version "+Version+"\n", out)
}

func TestConvertStdin(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    string
		args     []string
		expected string
	}{
		"canonical": {
			input:    `["Detrend",{"reference":"pkg.MinMaxScaler"}]`,
			expected: `["Detrend",{"reference":"pkg.MinMaxScaler"}]`,
		},
		"to nirs4all": {
			input:    `[{"reference":"pkg.MinMaxScaler","parameters":{"clip":true}},{"choice-set":["Detrend","SNV"],"size":1}]`,
			args:     []string{"--to-dialect", "nirs4all"},
			expected: `[{"class":"pkg.MinMaxScaler","params":{"clip":true}},{"_or_":["Detrend","SNV"],"size":1}]`,
		},
		"from nirs4all": {
			input:    `[{"_range_":[2,8],"param":"n_components","model":{"class":"pkg.PLSRegression"}}]`,
			args:     []string{"--dialect", "nirs4all", "--to-dialect", "default"},
			expected: `[{"numeric-range":[2,8],"param":"n_components","model":{"reference":"pkg.PLSRegression"}}]`,
		},
		"wrapped": {
			input:    `{"name":"sweep","description":"d","steps":["Detrend"]}`,
			expected: `{"name":"sweep","description":"d","steps":["Detrend"]}`,
		},
		"wrapped bare": {
			input:    `{"name":"sweep","steps":["Detrend"]}`,
			args:     []string{"--bare"},
			expected: `["Detrend"]`,
		},
		"unknown kept": {
			input:    `[{"mystery_op":{"alpha":0.5}},"Unheard"]`,
			expected: `[{"mystery_op":{"alpha":0.5}},"Unheard"]`,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"convert", "-"}, tc.args...)
			out, _, err := newEnv(t).run(t, tc.input, args...)
			require.NoError(t, err)
			assert.Equal(t, tc.expected+"\n", out)
		})
	}
}

func TestConvertOutDir(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	inputs := map[string]string{
		"a.json": `["Detrend",{"feature_augmentation":["SNV","Gaussian"]}]`,
		"b.json": `[{"numeric-range":[1,12,2],"param":"n_components","model":"PLSRegression"}]`,
	}
	paths := make([]string, 0, len(inputs))
	for name, content := range inputs {
		paths = append(paths, e.write(t, "in/"+name, content))
	}

	outDir := filepath.Join(e.dir, "out")
	out, _, err := e.run(t, "", append([]string{"convert", "--format", "yaml", "--out-dir", outDir}, paths...)...)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 2)

	for name, content := range inputs {
		data, err := os.ReadFile(filepath.Join(outDir, strings.TrimSuffix(name, ".json")+".yaml"))
		require.NoError(t, err)

		got, err := document.DecodeYAML(data)
		require.NoError(t, err)
		assert.True(t, document.Equal(testsupport.MustDecode(t, content), got), name)
	}
}

func TestConvertErrors(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.write(t, "a.json", `["Detrend"]`)
	b := e.write(t, "b.json", `["SNV"]`)
	broken := e.write(t, "broken.json", `[`)

	_, _, err := e.run(t, "", "convert", a, b)
	assert.ErrorIs(t, err, ErrOutputRequired)

	_, _, err = e.run(t, "", "convert", "--out-dir", filepath.Join(e.dir, "out"), a, broken)
	assert.ErrorContains(t, err, "broken.json")

	_, _, err = e.run(t, "", "convert", "--to-dialect", "perl", a)
	assert.Error(t, err)

	_, _, err = e.run(t, "", "convert", "--format", "toml", a)
	assert.Error(t, err)
}

func TestConvertSave(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	src := e.write(t, "sweep.json", `{"name":"PLS sweep","steps":["Detrend",{"model":"PLSRegression"}]}`)

	out, _, err := e.run(t, "", "convert", "--save", "pls_sweep", src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.library, "pls_sweep.json")+"\n", out)

	out, _, err = e.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "pls_sweep")
	assert.Contains(t, out, "PLS sweep")
}

func TestDegradedCatalog(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	input := `[{"reference":"pkg.MinMaxScaler","parameters":{"clip":true}},"Detrend"]`

	out, stderr, err := e.run(t, input, "--schema", filepath.Join(e.dir, "absent.json"), "convert", "-")
	require.NoError(t, err)
	assert.Equal(t, input+"\n", out)
	assert.Contains(t, stderr, "component catalog unavailable")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	good := e.write(t, "good.json", `["Detrend","SNV"]`)
	bad := e.write(t, "bad.json", `["Detrend",{"reference":"acme.Unknown"},"Normalize"]`)

	out, _, err := e.run(t, "", "validate", good)
	require.NoError(t, err)
	assert.Equal(t, good+": ok (2 steps)\n", out)

	out, _, err = e.run(t, "", "validate", good, bad)
	assert.ErrorIs(t, err, ErrDiagnostics)
	assert.Contains(t, out, bad+": unresolved_reference at [1]")
	assert.Contains(t, out, bad+": ambiguous_reference at [2]")
	assert.Contains(t, out, "candidates: [normalize_rows normalize_features]")

	_, _, err = e.run(t, "", "validate", "--lenient", bad)
	assert.NoError(t, err)
}

func TestInspect(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	src := e.write(t, "doc.json",
		`{"name":"demo","pipeline":["Detrend",{"choice-set":["SNV","Gaussian"],"size":[1,2]},{"numeric-range":[1,12,2],"param":"n_components","model":"PLSRegression"}]}`)

	out, _, err := e.run(t, "", "inspect", "--stats", src)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "demo (6 steps)", lines[0])
	assert.Equal(t, "  - Detrend [detrend] <identifier>", lines[1])
	assert.Contains(t, lines[2], "<choice> size=[1,2]")
	assert.Contains(t, lines[3], "    - Standard Normal Variate [standard_normal_variate]")
	assert.Contains(t, out, "<range> n_components=1..12/2")
	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "document")
}

func TestDraw(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	src := e.write(t, "doc.json", `["Detrend",{"feature_augmentation":["SNV"]}]`)

	out, _, err := e.run(t, "", "draw", src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "strict digraph {"))
	assert.Contains(t, out, `label="doc"`)
	assert.Contains(t, out, "->")

	target := filepath.Join(e.dir, "doc.dot")
	out, _, err = e.run(t, "", "draw", "--stats", "-o", target, src)
	require.NoError(t, err)
	assert.Equal(t, target+"\n", out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "strict digraph {"))
}

func TestList(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.write(t, "pipelines/baseline.json", `{"name":"Baseline","description":"SNV then PLS","steps":["SNV",{"model":"PLSRegression"}]}`)
	e.write(t, "pipelines/quick.json", `["Detrend"]`)

	out, _, err := e.run(t, "", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Equal(t, []string{"baseline", "Baseline", "2"}, strings.Fields(lines[1])[:3])
	assert.Equal(t, []string{"quick", "quick", "1"}, strings.Fields(lines[2]))
}

func TestComponents(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	out, _, err := e.run(t, "", "components")
	require.NoError(t, err)
	assert.Contains(t, out, "detrend")
	assert.Contains(t, out, "feature_augmentation")

	out, _, err = e.run(t, "", "components", "--category", "models_sklearn")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "pls_regression"))
	assert.True(t, strings.HasPrefix(lines[2], "ridge"))
}

func TestInvalidConfig(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	tcs := map[string][]string{
		"dialect":   {"--dialect", "perl"},
		"log level": {"--log-level", "loud"},
	}

	for name, args := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, _, err := e.run(t, "", append(args, "components")...)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}
