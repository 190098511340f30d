package model

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
)

// GeneratorVariant selects how a generator node expands.
type GeneratorVariant string

const (
	// VariantChoice picks combinations among candidate children.
	VariantChoice GeneratorVariant = "choice"
	// VariantRange sweeps one parameter of its single child over a numeric range.
	VariantRange GeneratorVariant = "range"
)

// BoundsForm is the way range bounds were written.
type BoundsForm int

const (
	// BoundsList is [start, end, step].
	BoundsList BoundsForm = iota
	// BoundsNamed is {from, to, step}.
	BoundsNamed
)

// GeneratorSpec describes a combinatorial expansion point. Expansion itself is done by
// the execution backend; the spec is only carried.
type GeneratorSpec struct {
	Variant GeneratorVariant

	// Size is the combination size of a choice generator: an integer, a list of integers or
	// a nested [outer, inner] pair. It is passed through without interpretation.
	Size  document.Value
	Count document.Value

	Start   document.Number
	End     document.Number
	Step    document.Number
	HasStep bool
	Bounds  BoundsForm
	// Param is the parameter of the child the range is applied to.
	Param string
}

// Range returns the numeric bounds of a range generator. A missing step defaults to 1.
func (g *GeneratorSpec) Range() (start, end, step float64, err error) {
	if g.Variant != VariantRange {
		return 0, 0, 0, errors.New("not a range generator")
	}

	start, err = g.Start.Float64()
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "start")
	}
	end, err = g.End.Float64()
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "end")
	}
	step = 1
	if g.HasStep {
		step, err = g.Step.Float64()
		if err != nil {
			return 0, 0, 0, errors.Wrap(err, "step")
		}
	}

	return start, end, step, nil
}

// Clone returns a deep copy of the spec.
func (g *GeneratorSpec) Clone() *GeneratorSpec {
	if g == nil {
		return nil
	}
	out := *g
	if g.Size != nil {
		out.Size = document.Clone(g.Size)
	}
	if g.Count != nil {
		out.Count = document.Clone(g.Count)
	}

	return &out
}
