// Package pipeline provides the editable tree behind a pipeline document.
//
// A pipeline document is a nested, loosely typed description of processing steps that an
// execution backend consumes. The codec package turns such a document into nodes and back,
// and this package holds those nodes in a Tree that an editor can change: append library
// components, move nodes between containers, edit parameters, remove subtrees.
//
// Every structural change is checked by a Validator against the nesting rules of the
// component catalog before it is applied. A rejected change returns a *StructureError and
// leaves the tree as it was, so a tree reached through the Tree API always satisfies the
// catalog: only containers and generators hold children, a range generator holds at most
// one child, ids are unique and a node is never its own ancestor.
//
// Decoded documents are installed with Tree.Load, which accepts nodes that break the
// catalog rules (for instance an unresolved step inside a container) and reports them as
// diagnostics instead, so that no document the backend accepts is refused by the editor.
package pipeline
