package model

import (
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
)

// UnknownComponentID is the component id of nodes that could not be resolved against the catalog.
const UnknownComponentID = "unknown"

// NodeKind is the structural kind of a node.
type NodeKind string

const (
	KindRegular   NodeKind = "regular"
	KindContainer NodeKind = "container"
	KindGenerator NodeKind = "generator"
)

// CanHaveChildren reports whether nodes of this kind may hold children.
func (k NodeKind) CanHaveChildren() bool {
	return k == KindContainer || k == KindGenerator
}

// Shape is the document shape a node maps to. Encoding is keyed off it.
type Shape string

const (
	// ShapeIdentifier is a bare string naming a component.
	ShapeIdentifier Shape = "identifier"
	// ShapeReference is a {reference, parameters} mapping.
	ShapeReference Shape = "reference"
	// ShapeModel is a {name, model, train_parameters, finetune_parameters} mapping.
	ShapeModel Shape = "model"
	// ShapeContainer is a {keyword: steps} mapping.
	ShapeContainer Shape = "container"
	// ShapeChoice is a {choice-set: steps, size, count} mapping.
	ShapeChoice Shape = "choice"
	// ShapeRange is a {numeric-range: bounds, param, model} mapping.
	ShapeRange Shape = "range"
	// ShapeMarker is a bare visualization keyword.
	ShapeMarker Shape = "marker"
	// ShapeUnknown is kept verbatim through RawFallback.
	ShapeUnknown Shape = "unknown"
)

// Form records syntactic choices of the source document that carry no meaning but must
// survive a round trip.
type Form struct {
	// ExplicitEmptyParameters is set when the source wrote an empty parameters mapping.
	ExplicitEmptyParameters bool
	// SingleChild is set when a container value was a single step rather than a list.
	SingleChild bool
	// BareModel is set when the model of a model step was a bare string.
	BareModel bool
	// ExplicitName is set when a model step wrote a name key, even an empty one.
	ExplicitName bool
	// SourceID is the id value written on the step, if any. It is written back and
	// never becomes the node id.
	SourceID document.Value
}

// ModelSpec holds the wrapper fields of a model step.
type ModelSpec struct {
	Name     string
	Train    document.Value
	Finetune document.Value
}

// Node is an element of the pipeline tree. A node is owned by exactly one parent, or by the
// tree root.
type Node struct {
	ID          string
	ComponentID string
	Kind        NodeKind
	Shape       Shape
	Label       string
	// Reference is the reference or identifier text as written in the document.
	Reference  string
	Parameters *document.Object
	Children   []*Node
	Generator  *GeneratorSpec
	Model      *ModelSpec
	Form       Form
	// RawFallback holds the untouched input of a step that could not be resolved.
	RawFallback document.Value
}

// HasRawFallback reports whether the node carries verbatim input.
func (n *Node) HasRawFallback() bool {
	return n.RawFallback != nil
}

// IsUnknown reports whether the node could not be resolved to a catalog component.
func (n *Node) IsUnknown() bool {
	return n.ComponentID == UnknownComponentID
}

// Contains reports whether target is n itself or one of its descendants.
func (n *Node) Contains(target *Node) bool {
	if n == nil || target == nil {
		return false
	}
	if n == target || (n.ID != "" && n.ID == target.ID) {
		return true
	}
	for _, child := range n.Children {
		if child.Contains(target) {
			return true
		}
	}

	return false
}

// Walk visits n and its descendants depth-first, parents before children. Returning false
// from fn skips the children of the visited node.
func (n *Node) Walk(fn func(node, parent *Node) bool) {
	walk(n, nil, fn)
}

func walk(node, parent *Node, fn func(node, parent *Node) bool) {
	if !fn(node, parent) {
		return
	}
	for _, child := range node.Children {
		walk(child, node, fn)
	}
}

// WalkAll visits every node of a forest depth-first.
func WalkAll(nodes []*Node, fn func(node, parent *Node) bool) {
	for _, n := range nodes {
		walk(n, nil, fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(_, _ *Node) bool {
		total++
		return true
	})

	return total
}
