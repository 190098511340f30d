package pipeline

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-pipeline-doc/internal/store"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/schema"
)

// Validator checks nesting legality against the component catalog. It never mutates the
// nodes it is given.
type Validator struct {
	registry *schema.Registry
}

// NewValidator creates a validator backed by registry. A nil registry behaves like
// schema.Empty().
func NewValidator(registry *schema.Registry) *Validator {
	if registry == nil {
		registry = schema.Empty()
	}

	return &Validator{registry: registry}
}

// Validate reports whether child may be attached under parent. A nil parent stands for
// the top level, which accepts any node. The returned error is nil or a *StructureError.
func (v *Validator) Validate(parent, child *model.Node) error {
	if child == nil {
		return ErrNodeMustBeSet
	}
	if parent == nil {
		return nil
	}

	if child.Contains(parent) {
		return newStructureError(ErrCyclicMove, parent.ID, child.ID)
	}

	if !parent.Kind.CanHaveChildren() {
		return newStructureError(ErrNotAContainer, parent.ID, child.ID)
	}

	if isRange(parent) && holdsOther(parent, child) {
		return newStructureError(ErrChildLimitReached, parent.ID, child.ID)
	}

	return v.validateRules(parent, child)
}

func (v *Validator) validateRules(parent, child *model.Node) error {
	if _, ok := v.registry.FindComponent(parent.ComponentID); !ok {
		return newStructureError(ErrUnknownParent, parent.ID, child.ID)
	}
	if _, ok := v.registry.FindComponent(child.ComponentID); !ok {
		return newStructureError(ErrUnknownChild, parent.ID, child.ID)
	}
	if !v.registry.IsChildAllowed(parent.ComponentID, child.ComponentID) {
		return newStructureError(ErrChildKindNotAllowed, parent.ID, child.ID)
	}

	return nil
}

// IsValidTree checks a whole forest: ids are unique, no node is shared between parents,
// and every parent/child edge passes Validate. All problems are joined in a *TreeError.
func (v *Validator) IsValidTree(nodes []*model.Node) error {
	hard, soft := v.check(nodes)
	errs := append(hard, soft...)

	if len(errs) > 0 {
		return &TreeError{Errs: errs}
	}

	return nil
}

// check splits the problems of a forest into hard ones, which no tree may have, and
// nesting rule violations, which a decoded document may carry.
func (v *Validator) check(nodes []*model.Node) (hard, soft []error) {
	g := graph.NewWithStore(nodeHash, store.NewMemoryStore[string, *model.Node](), graph.Directed(), graph.PreventCycles())

	var visit func(node, parent *model.Node)
	visit = func(node, parent *model.Node) {
		if node == nil {
			hard = append(hard, ErrNodeMustBeSet)
			return
		}

		err := g.AddVertex(node)
		if err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				err = ErrDuplicateID
			}
			hard = append(hard, errors.Wrapf(err, "node %q", node.ID))

			return
		}

		if parent != nil {
			err = g.AddEdge(parent.ID, node.ID)
			if err != nil {
				hard = append(hard, errors.Wrapf(err, "edge %q -> %q", parent.ID, node.ID))
			}

			err = v.validateEdge(parent, node)
			if err != nil {
				if errors.Is(err, ErrNotAContainer) || errors.Is(err, ErrCyclicMove) {
					hard = append(hard, err)
				} else {
					soft = append(soft, err)
				}
			}
		}

		if isRange(node) && len(node.Children) > 1 {
			for _, extra := range node.Children[1:] {
				hard = append(hard, newStructureError(ErrChildLimitReached, node.ID, idOf(extra)))
			}
		}

		for _, child := range node.Children {
			visit(child, node)
		}
	}

	for _, node := range nodes {
		visit(node, nil)
	}

	return hard, soft
}

// validateEdge checks an existing edge. The child limit is checked once per parent by
// the caller.
func (v *Validator) validateEdge(parent, child *model.Node) error {
	if !parent.Kind.CanHaveChildren() {
		return newStructureError(ErrNotAContainer, parent.ID, child.ID)
	}

	return v.validateRules(parent, child)
}

func nodeHash(n *model.Node) string {
	return n.ID
}

func isRange(n *model.Node) bool {
	return n.Kind == model.KindGenerator && n.Generator != nil && n.Generator.Variant == model.VariantRange
}

func holdsOther(parent, child *model.Node) bool {
	for _, c := range parent.Children {
		if c != child {
			return true
		}
	}

	return false
}

func idOf(n *model.Node) string {
	if n == nil {
		return ""
	}

	return n.ID
}
