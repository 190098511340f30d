package codec

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/schema"
)

// Encoder turns tree nodes back into a pipeline document. It is the right inverse of the
// Decoder configured with the same keywords.
type Encoder struct {
	registry *schema.Registry
	*settings
}

// NewEncoder creates an encoder. The registry is used to find container keywords and
// references of nodes created from the library; a nil registry behaves like
// schema.Empty().
func NewEncoder(registry *schema.Registry, opts ...Option) *Encoder {
	if registry == nil {
		registry = schema.Empty()
	}

	return &Encoder{registry: registry, settings: newSettings(opts...)}
}

// EncodeTree encodes the top-level nodes of tree.
func (e *Encoder) EncodeTree(tree *pipeline.Tree) (document.Array, error) {
	return e.Encode(tree.Nodes())
}

// EncodeBytes encodes nodes and serialises the document in format.
func (e *Encoder) EncodeBytes(nodes []*model.Node, format document.Format) ([]byte, error) {
	doc, err := e.Encode(nodes)
	if err != nil {
		return nil, err
	}

	data, err := document.Encode(doc, format, e.indent)
	if err != nil {
		return nil, errors.Wrap(err, "unable to serialise pipeline document")
	}

	return data, nil
}

// Encode converts nodes into a step sequence. It only fails on nodes the Tree API cannot
// produce, with ErrMalformedNode.
func (e *Encoder) Encode(nodes []*model.Node) (document.Array, error) {
	return e.steps(nodes)
}

func (e *Encoder) steps(nodes []*model.Node) (document.Array, error) {
	out := make(document.Array, 0, len(nodes))
	for _, n := range nodes {
		v, err := e.node(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

func (e *Encoder) node(n *model.Node) (document.Value, error) {
	if n == nil {
		return nil, errors.Wrap(ErrMalformedNode, "nil node")
	}
	if n.HasRawFallback() {
		return document.Clone(n.RawFallback), nil
	}

	v, err := e.shaped(n)
	if err != nil {
		return nil, err
	}

	if n.Form.SourceID != nil {
		if obj, ok := document.AsObject(v); ok {
			obj.Set(e.keywords.ID, document.Clone(n.Form.SourceID))
		}
	}

	return v, nil
}

func (e *Encoder) shaped(n *model.Node) (document.Value, error) {
	switch n.Shape {
	case model.ShapeIdentifier:
		if n.Parameters.Len() == 0 && !n.Form.ExplicitEmptyParameters {
			return document.String(e.reference(n)), nil
		}
		return e.referenceObject(n), nil
	case model.ShapeReference:
		return e.referenceObject(n), nil
	case model.ShapeModel:
		return e.model(n), nil
	case model.ShapeContainer:
		return e.container(n)
	case model.ShapeChoice:
		return e.choice(n)
	case model.ShapeRange:
		return e.numericRange(n)
	case model.ShapeMarker:
		return document.String(e.reference(n)), nil
	default:
		return nil, errors.Wrapf(ErrMalformedNode, "node %q: shape %q without raw input", n.ID, n.Shape)
	}
}

// reference is the text naming the component of n: as written in the source document,
// else the catalog reference, else the component id.
func (e *Encoder) reference(n *model.Node) string {
	if n.Reference != "" {
		return n.Reference
	}
	if def, ok := e.registry.FindComponent(n.ComponentID); ok && def.Reference != "" {
		return def.Reference
	}

	return n.ComponentID
}

func (e *Encoder) referenceObject(n *model.Node) *document.Object {
	obj := document.NewObject().Set(e.keywords.Reference, document.String(e.reference(n)))
	if n.Parameters.Len() > 0 || n.Form.ExplicitEmptyParameters {
		obj.Set(e.keywords.Parameters, n.Parameters.Clone())
	}

	return obj
}

func (e *Encoder) model(n *model.Node) *document.Object {
	kw := e.keywords
	spec := n.Model
	if spec == nil {
		spec = &model.ModelSpec{}
	}

	var inner document.Value = e.referenceObject(n)
	if n.Form.BareModel && n.Parameters.Len() == 0 {
		inner = document.String(e.reference(n))
	}

	obj := document.NewObject()
	if spec.Name != "" || n.Form.ExplicitName {
		obj.Set(kw.Name, document.String(spec.Name))
	}
	obj.Set(kw.Model, inner)
	if spec.Train != nil {
		obj.Set(kw.TrainParameters, document.Clone(spec.Train))
	}
	if spec.Finetune != nil {
		obj.Set(kw.FinetuneParameters, document.Clone(spec.Finetune))
	}

	return obj
}

func (e *Encoder) container(n *model.Node) (document.Value, error) {
	keyword := n.ComponentID
	singleValued := false
	if def, ok := e.registry.FindComponent(n.ComponentID); ok {
		keyword = def.DocumentKeyword()
		singleValued = def.SingleValued
	}

	if len(n.Children) == 1 && (n.Form.SingleChild || singleValued) {
		child, err := e.node(n.Children[0])
		if err != nil {
			return nil, err
		}

		return document.NewObject().Set(keyword, child), nil
	}

	children, err := e.steps(n.Children)
	if err != nil {
		return nil, err
	}

	return document.NewObject().Set(keyword, children), nil
}

func (e *Encoder) choice(n *model.Node) (document.Value, error) {
	kw := e.keywords

	candidates, err := e.steps(n.Children)
	if err != nil {
		return nil, err
	}

	obj := document.NewObject().Set(kw.Choice, candidates)
	if n.Generator != nil {
		if n.Generator.Size != nil {
			obj.Set(kw.Size, document.Clone(n.Generator.Size))
		}
		if n.Generator.Count != nil {
			obj.Set(kw.Count, document.Clone(n.Generator.Count))
		}
	}

	return obj, nil
}

func (e *Encoder) numericRange(n *model.Node) (document.Value, error) {
	kw := e.keywords
	spec := n.Generator

	if spec == nil || spec.Variant != model.VariantRange {
		return nil, errors.Wrapf(ErrMalformedNode, "node %q: range without range spec", n.ID)
	}
	if len(n.Children) != 1 {
		return nil, errors.Wrapf(ErrMalformedNode, "node %q: range holds %d children", n.ID, len(n.Children))
	}
	if spec.Start == "" || spec.End == "" || (spec.HasStep && spec.Step == "") {
		return nil, errors.Wrapf(ErrMalformedNode, "node %q: range bounds are not set", n.ID)
	}

	var bounds document.Value
	switch spec.Bounds {
	case model.BoundsNamed:
		named := document.NewObject().Set(kw.From, spec.Start).Set(kw.To, spec.End)
		if spec.HasStep {
			named.Set(kw.Step, spec.Step)
		}
		bounds = named
	default:
		list := document.Array{spec.Start, spec.End}
		if spec.HasStep {
			list = append(list, spec.Step)
		}
		bounds = list
	}

	child, err := e.node(n.Children[0])
	if err != nil {
		return nil, err
	}

	obj := document.NewObject().Set(kw.Range, bounds)
	if spec.Param != "" {
		obj.Set(kw.Param, document.String(spec.Param))
	}
	obj.Set(kw.Model, child)

	return obj, nil
}
