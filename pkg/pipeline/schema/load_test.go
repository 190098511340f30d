package schema_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeline-doc/internal/testsupport"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/schema"
)

const minimalCategories = `"categories": [{"id": "preprocessing"}],
  "subcategories": [{"id": "smoothing", "categoryId": "preprocessing"}]`

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    string
		expected error
	}{
		"duplicate component": {
			input: `{` + minimalCategories + `, "components": [
				{"id": "a", "subcategoryId": "smoothing"},
				{"id": "a", "subcategoryId": "smoothing"}]}`,
			expected: schema.ErrDuplicateID,
		},
		"unknown subcategory": {
			input:    `{` + minimalCategories + `, "components": [{"id": "a", "subcategoryId": "nope"}]}`,
			expected: schema.ErrUnknownSubcategory,
		},
		"unknown category": {
			input:    `{"categories": [], "subcategories": [{"id": "s", "categoryId": "nope"}], "components": []}`,
			expected: schema.ErrUnknownCategory,
		},
		"missing component id": {
			input:    `{` + minimalCategories + `, "components": [{"subcategoryId": "smoothing"}]}`,
			expected: schema.ErrMissingID,
		},
		"invalid node type": {
			input:    `{` + minimalCategories + `, "components": [{"id": "a", "subcategoryId": "smoothing", "nodeType": "branch"}]}`,
			expected: schema.ErrInvalidNodeType,
		},
		"invalid parameter type": {
			input: `{` + minimalCategories + `, "components": [{"id": "a", "subcategoryId": "smoothing",
				"editableParams": [{"name": "x", "type": "tensor"}]}]}`,
			expected: schema.ErrInvalidParameterType,
		},
		"duplicate container keyword": {
			input: `{` + minimalCategories + `, "components": [
				{"id": "a", "subcategoryId": "smoothing", "nodeType": "container", "keyword": "group"},
				{"id": "b", "subcategoryId": "smoothing", "nodeType": "container", "keyword": "group"}]}`,
			expected: schema.ErrDuplicateKeyword,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := schema.Load(strings.NewReader(tc.input))
			require.Error(t, err)

			var loadErr *schema.SchemaLoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, "reader", loadErr.Source)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	t.Parallel()

	_, err := schema.Load(strings.NewReader(`{"components": [`))
	var loadErr *schema.SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.json")
	_, err := schema.LoadFile(path)

	var loadErr *schema.SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, path, loadErr.Source)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadAlternateSpellings(t *testing.T) {
	t.Parallel()

	input := `{` + minimalCategories + `, "components": [
		{"id": "smooth", "subcategoryId": "smoothing", "nodeKind": "regular",
		 "reference": "lib.Smooth", "defaultParameters": {"b": 1, "a": 2},
		 "editableParameters": [{"name": "b", "type": "integer", "default": 1, "options": [1, 2]}]},
		{"id": "sweep", "subcategoryId": "smoothing", "nodeType": "generator", "generatorVariant": "range"},
		{"id": "fn", "subcategoryId": "smoothing", "functionPath": "lib.fn"}]}`

	reg, err := schema.Load(strings.NewReader(input))
	require.NoError(t, err)

	smooth, ok := reg.FindComponent("smooth")
	require.True(t, ok)
	assert.Equal(t, "lib.Smooth", smooth.Reference)
	assert.Equal(t, "smooth", smooth.Label)
	assert.Equal(t, []string{"b", "a"}, smooth.DefaultParameters().Keys())

	params := smooth.EditableParameters()
	require.Len(t, params, 1)
	assert.Equal(t, schema.ParamInteger, params[0].Type)
	assert.Equal(t, document.Number("1"), params[0].Default)
	assert.Equal(t, []document.Value{document.Number("1"), document.Number("2")}, params[0].Options)

	sweep, ok := reg.FindComponent("sweep")
	require.True(t, ok)
	assert.Equal(t, schema.NodeTypeGenerator, sweep.NodeType)

	fn, ok := reg.FindComponent("fn")
	require.True(t, ok)
	assert.Equal(t, "lib.fn", fn.Reference)
	assert.Equal(t, schema.NodeTypeRegular, fn.NodeType)
}

func TestLoadFileYAML(t *testing.T) {
	t.Parallel()

	content := `categories:
  - id: preprocessing
    color: "#60a5fa"
subcategories:
  - id: smoothing
    categoryId: preprocessing
components:
  - id: gaussian
    shortName: Gaussian
    subcategoryId: smoothing
    classPath: lib.signal.Gaussian
    defaultParams:
      sigma: 1
      order: 2
`
	path := filepath.Join(t.TempDir(), "components.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	reg, err := schema.LoadFile(path)
	require.NoError(t, err)

	def, ok := reg.FindComponent("gaussian")
	require.True(t, ok)
	assert.Equal(t, "preprocessing", def.CategoryID)
	assert.Equal(t, []string{"sigma", "order"}, def.DefaultParameters().Keys())
	assert.Equal(t, "gaussian", reg.ResolveReference("other.Gaussian").Definition.ID)
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"catalog/components.json": {Data: testsupport.Catalog()}}

	reg, err := schema.LoadFS(fsys, "catalog/components.json")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Components())

	_, err = schema.LoadFS(fsys, "catalog/missing.json")
	var loadErr *schema.SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
}
