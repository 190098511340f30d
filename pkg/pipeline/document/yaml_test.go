package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
)

func TestDecodeYAML(t *testing.T) {
	t.Parallel()

	input := `
- Detrend
- feature_augmentation:
    - SNV
    - FirstDerivative
- reference: pkg.PLSRegression
  parameters:
    n_components: 10
    scale: false
    tol: 1.0e-06
    label: "10"
`
	v, err := document.DecodeYAML([]byte(input))
	require.NoError(t, err)

	expected, err := document.DecodeJSON([]byte(`[
		"Detrend",
		{"feature_augmentation": ["SNV", "FirstDerivative"]},
		{"reference": "pkg.PLSRegression", "parameters": {"n_components": 10, "scale": false, "tol": 1e-06, "label": "10"}}
	]`))
	require.NoError(t, err)

	assert.True(t, document.Equal(expected, v))

	arr, _ := document.AsArray(v)
	step, _ := document.AsObject(arr[2])
	params, _ := step.Get("parameters")
	paramsObj, _ := document.AsObject(params)
	assert.Equal(t, []string{"n_components", "scale", "tol", "label"}, paramsObj.Keys())
	label, _ := paramsObj.Get("label")
	assert.Equal(t, document.String("10"), label)
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	v, err := document.DecodeJSON([]byte(`[{"b":"true","a":[1,2.5,null]},"x"]`))
	require.NoError(t, err)

	out, err := document.EncodeYAML(v)
	require.NoError(t, err)

	back, err := document.DecodeYAML(out)
	require.NoError(t, err)
	assert.True(t, document.Equal(v, back))

	arr, _ := document.AsArray(back)
	obj, _ := document.AsObject(arr[0])
	assert.Equal(t, []string{"b", "a"}, obj.Keys())
	b, _ := obj.Get("b")
	assert.Equal(t, document.String("true"), b)
}

func TestDecodeYAMLDuplicateKey(t *testing.T) {
	t.Parallel()

	_, err := document.DecodeYAML([]byte("- model: PLSRegression\n  model: Ridge\n"))
	require.ErrorIs(t, err, document.ErrDuplicateKey)
}

func TestDecodeYAMLEmpty(t *testing.T) {
	t.Parallel()

	v, err := document.DecodeYAML([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, document.KindNull, v.Kind())
}

func TestDecodeFormatDispatch(t *testing.T) {
	t.Parallel()

	_, err := document.Decode([]byte(`[]`), document.Format("toml"))
	require.ErrorIs(t, err, document.ErrUnsupportedFormat)

	assert.Equal(t, document.FormatYAML, document.DetectFormat("pipelines/a.YML"))
	assert.Equal(t, document.FormatJSON, document.DetectFormat("pipelines/a.json"))
}
