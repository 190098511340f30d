package pipeline_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeline-doc/internal/testsupport"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/schema"
)

func node(id, component string, kind model.NodeKind, children ...*model.Node) *model.Node {
	return &model.Node{ID: id, ComponentID: component, Kind: kind, Children: children}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	validator := pipeline.NewValidator(testsupport.Registry(t))

	inner := node("inner", "pipeline", model.KindContainer)
	outer := node("outer", "pipeline", model.KindContainer, inner)
	rng := &model.Node{
		ID: "range", ComponentID: "_range_", Kind: model.KindGenerator,
		Generator: &model.GeneratorSpec{Variant: model.VariantRange},
		Children:  []*model.Node{node("pls", "pls_regression", model.KindRegular)},
	}

	tcs := map[string]struct {
		parent   *model.Node
		child    *model.Node
		expected error
	}{
		"top level":          {parent: nil, child: node("x", model.UnknownComponentID, model.KindRegular)},
		"allowed":            {parent: node("p", "feature_augmentation", model.KindContainer), child: node("c", "detrend", model.KindRegular)},
		"not a container":    {parent: node("p", "detrend", model.KindRegular), child: node("c", "detrend", model.KindRegular), expected: pipeline.ErrNotAContainer},
		"kind not allowed":   {parent: node("p", "sequential", model.KindContainer), child: node("c", "ridge", model.KindRegular), expected: pipeline.ErrChildKindNotAllowed},
		"unknown parent":     {parent: node("p", "custom_group", model.KindContainer), child: node("c", "detrend", model.KindRegular), expected: pipeline.ErrUnknownParent},
		"unknown child":      {parent: node("p", "pipeline", model.KindContainer), child: node("c", model.UnknownComponentID, model.KindRegular), expected: pipeline.ErrUnknownChild},
		"ancestor as child":  {parent: inner, child: outer, expected: pipeline.ErrCyclicMove},
		"self as child":      {parent: inner, child: inner, expected: pipeline.ErrCyclicMove},
		"range already full": {parent: rng, child: node("ridge", "ridge", model.KindRegular), expected: pipeline.ErrChildLimitReached},
		"range own child":    {parent: rng, child: rng.Children[0]},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := validator.Validate(tc.parent, tc.child)
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}

			var structErr *pipeline.StructureError
			require.True(t, errors.As(err, &structErr))
			assert.Equal(t, tc.expected, structErr.Reason)
			assert.Equal(t, tc.parent.ID, structErr.ParentID)
			assert.Equal(t, tc.child.ID, structErr.ChildID)
		})
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	t.Parallel()

	validator := pipeline.NewValidator(testsupport.Registry(t))
	parent := node("p", "sequential", model.KindContainer, node("d", "detrend", model.KindRegular))
	before := testsupport.Snapshot([]*model.Node{parent})

	require.Error(t, validator.Validate(parent, node("c", "ridge", model.KindRegular)))
	assert.Equal(t, before, testsupport.Snapshot([]*model.Node{parent}))
}

func TestIsValidTree(t *testing.T) {
	t.Parallel()

	validator := pipeline.NewValidator(testsupport.Registry(t))

	shared := node("shared", "detrend", model.KindRegular)

	tcs := map[string]struct {
		nodes    []*model.Node
		expected []error
	}{
		"empty": {},
		"valid": {
			nodes: []*model.Node{
				node("aug", "feature_augmentation", model.KindContainer,
					node("d", "detrend", model.KindRegular),
					node("s", "standard_normal_variate", model.KindRegular)),
				node("m", "pls_regression", model.KindRegular),
			},
		},
		"duplicate ids": {
			nodes:    []*model.Node{node("a", "detrend", model.KindRegular), node("a", "ridge", model.KindRegular)},
			expected: []error{pipeline.ErrDuplicateID},
		},
		"shared node": {
			nodes: []*model.Node{
				node("p1", "pipeline", model.KindContainer, shared),
				node("p2", "pipeline", model.KindContainer, shared),
			},
			expected: []error{pipeline.ErrDuplicateID},
		},
		"several problems": {
			nodes: []*model.Node{
				node("seq", "sequential", model.KindContainer,
					node("r", "ridge", model.KindRegular),
					node("d", "detrend", model.KindRegular, node("g", "gaussian_smoothing", model.KindRegular))),
			},
			expected: []error{pipeline.ErrChildKindNotAllowed, pipeline.ErrNotAContainer},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := validator.IsValidTree(tc.nodes)
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}

			var treeErr *pipeline.TreeError
			require.True(t, errors.As(err, &treeErr))
			assert.Len(t, treeErr.Errs, len(tc.expected))
			for _, expected := range tc.expected {
				assert.ErrorIs(t, err, expected)
			}
		})
	}
}

func TestValidatorWithoutCatalog(t *testing.T) {
	t.Parallel()

	for name, reg := range map[string]*schema.Registry{"nil": nil, "empty": schema.Empty()} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			validator := pipeline.NewValidator(reg)
			err := validator.Validate(node("p", "pipeline", model.KindContainer), node("c", "detrend", model.KindRegular))
			assert.ErrorIs(t, err, pipeline.ErrUnknownParent)
			assert.NoError(t, validator.IsValidTree([]*model.Node{node("c", "detrend", model.KindRegular)}))
		})
	}
}
