package pipeline

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/schema"
)

// Bounds given to a range generator created from the library.
var (
	defaultRangeStart = document.Int(1)
	defaultRangeEnd   = document.Int(10)
	defaultRangeStep  = document.Int(1)
)

// Tree is the editable pipeline. Every structural change goes through its methods and
// is validated before it is applied, so a rejected change leaves the tree untouched.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	registry  *schema.Registry
	validator *Validator
	roots     []*model.Node
	logger    *slog.Logger
	newID     func() string
}

// New creates an empty tree. A nil registry behaves like schema.Empty().
func New(registry *schema.Registry, opts ...TreeOption) *Tree {
	if registry == nil {
		registry = schema.Empty()
	}

	t := &Tree{
		registry:  registry,
		validator: NewValidator(registry),
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Registry returns the catalog the tree validates against.
func (t *Tree) Registry() *schema.Registry {
	return t.registry
}

// Validator returns the validator used by the tree.
func (t *Tree) Validator() *Validator {
	return t.validator
}

// CreateNode builds a detached node for a library component. The node gets a fresh id and
// a deep copy of the component defaults; it joins the tree once appended.
func (t *Tree) CreateNode(def *schema.ComponentDefinition) *model.Node {
	node := &model.Node{
		ID:          t.newID(),
		ComponentID: def.ID,
		Kind:        def.Kind(),
		Label:       def.Label,
		Reference:   def.Reference,
		Parameters:  def.DefaultParameters(),
	}

	switch {
	case node.Kind == model.KindContainer:
		node.Shape = model.ShapeContainer
		node.Reference = ""
	case node.Kind == model.KindGenerator:
		node.Reference = ""
		node.Generator = &model.GeneratorSpec{Variant: def.GeneratorVariant}
		node.Shape = model.ShapeChoice
		if def.GeneratorVariant == model.VariantRange {
			node.Shape = model.ShapeRange
			node.Generator.Start = defaultRangeStart
			node.Generator.End = defaultRangeEnd
			node.Generator.Step = defaultRangeStep
			node.Generator.HasStep = true
		}
	case t.registry.IsMarker(def):
		node.Shape = model.ShapeMarker
		node.Reference = def.ID
	case t.registry.IsModel(def):
		node.Shape = model.ShapeModel
		node.Model = &model.ModelSpec{}
	case def.Reference != "":
		node.Shape = model.ShapeReference
	default:
		node.Shape = model.ShapeIdentifier
		node.Reference = def.ID
	}

	if node.Shape == model.ShapeModel && node.Reference == "" {
		node.Reference = def.ID
		node.Form.BareModel = true
	}

	return node
}

// AppendRoot adds node at the end of the top level.
func (t *Tree) AppendRoot(node *model.Node) error {
	return t.InsertRoot(len(t.roots), node)
}

// InsertRoot inserts node at index in the top level. The top level accepts any node.
func (t *Tree) InsertRoot(index int, node *model.Node) error {
	err := t.checkDetached(node)
	if err != nil {
		return err
	}

	roots, err := insertAt(t.roots, index, node)
	if err != nil {
		return err
	}
	t.roots = roots

	return nil
}

// AppendChild appends node to the children of the node identified by parentID.
func (t *Tree) AppendChild(parentID string, node *model.Node) error {
	parent, _, _, ok := t.locate(parentID)
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "parent %q", parentID)
	}

	err := t.checkDetached(node)
	if err != nil {
		return err
	}

	err = t.validator.Validate(parent, node)
	if err != nil {
		t.reject("append", parent.ID, node.ID, err)
		return err
	}

	parent.Children = append(parent.Children, node)

	return nil
}

// Move reparents the node identified by id under parentID, at index among the new
// siblings once the node is detached. An empty parentID is the top level and a negative
// index appends.
func (t *Tree) Move(id, parentID string, index int) error {
	node, oldParent, oldIndex, ok := t.locate(id)
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "node %q", id)
	}

	var newParent *model.Node
	if parentID != "" {
		newParent, _, _, ok = t.locate(parentID)
		if !ok {
			return errors.Wrapf(ErrNodeNotFound, "parent %q", parentID)
		}
	}

	err := t.validator.Validate(newParent, node)
	if err != nil {
		t.reject("move", parentID, id, err)
		return err
	}

	siblings := t.childrenOf(newParent)
	if newParent == oldParent {
		siblings = removeAt(siblings, oldIndex)
	}
	if index < 0 {
		index = len(siblings)
	}
	if index > len(siblings) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d, %d siblings", index, len(siblings))
	}

	if newParent != oldParent {
		t.setChildren(oldParent, removeAt(t.childrenOf(oldParent), oldIndex))
	}

	updated, err := insertAt(siblings, index, node)
	if err != nil {
		return err
	}
	t.setChildren(newParent, updated)

	return nil
}

// RemoveNode detaches the node identified by id together with its subtree. It reports
// whether a node was removed.
func (t *Tree) RemoveNode(id string) bool {
	_, parent, index, ok := t.locate(id)
	if !ok {
		return false
	}

	t.setChildren(parent, removeAt(t.childrenOf(parent), index))

	return true
}

// FindNode searches the tree depth-first.
func (t *Tree) FindNode(id string) (*model.Node, bool) {
	node, _, _, ok := t.locate(id)
	return node, ok
}

// Parent returns the parent of the node identified by id, nil for a top-level node.
func (t *Tree) Parent(id string) (*model.Node, error) {
	_, parent, _, ok := t.locate(id)
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "node %q", id)
	}

	return parent, nil
}

// UpdateParameters replaces the parameters of a node with a copy of params. Values are
// not checked against the editable parameter types.
func (t *Tree) UpdateParameters(id string, params *document.Object) error {
	node, ok := t.FindNode(id)
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "node %q", id)
	}

	node.Parameters = params.Clone()

	return nil
}

// UpdateGenerator replaces the spec of a generator node. The variant is fixed at
// creation.
func (t *Tree) UpdateGenerator(id string, spec *model.GeneratorSpec) error {
	node, ok := t.FindNode(id)
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "node %q", id)
	}
	if node.Generator == nil || spec == nil || node.Generator.Variant != spec.Variant {
		return errors.Wrapf(ErrVariantMismatch, "node %q", id)
	}

	node.Generator = spec.Clone()

	return nil
}

// Replace swaps the whole tree for nodes if they form a valid tree. Otherwise the current
// tree is kept and the *TreeError is returned.
func (t *Tree) Replace(nodes []*model.Node) error {
	err := t.validator.IsValidTree(nodes)
	if err != nil {
		t.logger.Debug("tree replacement rejected", slog.String("error", err.Error()))
		return err
	}

	t.roots = append([]*model.Node(nil), nodes...)

	return nil
}

// Load installs decoded nodes. Duplicate ids, children under nodes that cannot hold them
// and overfull range generators are rejected; nodes that break the catalog nesting rules
// are kept and reported as diagnostics.
func (t *Tree) Load(nodes []*model.Node) ([]model.Diagnostic, error) {
	hard, soft := t.validator.check(nodes)
	if len(hard) > 0 {
		return nil, &TreeError{Errs: hard}
	}

	diags := make([]model.Diagnostic, 0, len(soft))
	for _, err := range soft {
		diag := model.Diagnostic{Code: model.NestingViolation, Message: err.Error()}
		var structErr *StructureError
		if errors.As(err, &structErr) {
			diag.NodeID = structErr.ChildID
			diag.ParentID = structErr.ParentID
			diag.Message = structErr.Reason.Error()
		}
		diags = append(diags, diag)
	}

	t.roots = append([]*model.Node(nil), nodes...)

	return diags, nil
}

// Clear removes every node.
func (t *Tree) Clear() {
	t.roots = nil
}

// Nodes returns the top-level nodes in order. The nodes are shared with the tree and must
// only be changed through the tree.
func (t *Tree) Nodes() []*model.Node {
	return append([]*model.Node(nil), t.roots...)
}

// Walk visits every node depth-first, parents before children.
func (t *Tree) Walk(fn func(node, parent *model.Node) bool) {
	model.WalkAll(t.roots, fn)
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	total := 0
	for _, root := range t.roots {
		total += root.Count()
	}

	return total
}

// checkDetached makes sure neither node nor any of its descendants is already in the tree,
// and that the subtree is consistent on its own.
func (t *Tree) checkDetached(node *model.Node) error {
	if node == nil {
		return ErrNodeMustBeSet
	}

	var err error
	node.Walk(func(n, _ *model.Node) bool {
		if _, found := t.FindNode(n.ID); found {
			err = errors.Wrapf(ErrDuplicateID, "node %q", n.ID)
			return false
		}
		return err == nil
	})
	if err != nil {
		return err
	}

	return t.validator.IsValidTree([]*model.Node{node})
}

func (t *Tree) locate(id string) (node, parent *model.Node, index int, ok bool) {
	if id == "" {
		return nil, nil, 0, false
	}

	var search func(nodes []*model.Node, p *model.Node) bool
	search = func(nodes []*model.Node, p *model.Node) bool {
		for i, n := range nodes {
			if n.ID == id {
				node, parent, index = n, p, i
				return true
			}
			if search(n.Children, n) {
				return true
			}
		}
		return false
	}

	ok = search(t.roots, nil)

	return node, parent, index, ok
}

func (t *Tree) childrenOf(parent *model.Node) []*model.Node {
	if parent == nil {
		return t.roots
	}

	return parent.Children
}

func (t *Tree) setChildren(parent *model.Node, children []*model.Node) {
	if parent == nil {
		t.roots = children
		return
	}

	parent.Children = children
}

func (t *Tree) reject(op, parentID, childID string, err error) {
	t.logger.Debug("tree mutation rejected",
		slog.String("op", op),
		slog.String("parent", parentID),
		slog.String("child", childID),
		slog.String("error", err.Error()),
	)
}

// removeAt returns a new slice without the element at i.
func removeAt(nodes []*model.Node, i int) []*model.Node {
	out := make([]*model.Node, 0, len(nodes))
	out = append(out, nodes[:i]...)

	return append(out, nodes[i+1:]...)
}

// insertAt returns a new slice with node inserted at i.
func insertAt(nodes []*model.Node, i int, node *model.Node) ([]*model.Node, error) {
	if i < 0 || i > len(nodes) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d, %d nodes", i, len(nodes))
	}

	out := make([]*model.Node, 0, len(nodes)+1)
	out = append(out, nodes[:i]...)
	out = append(out, node)

	return append(out, nodes[i:]...), nil
}
