package pipeline

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNodeNotFound    = errors.New("node not found")
	ErrDuplicateID     = errors.New("node id already in tree")
	ErrNodeMustBeSet   = errors.New("node must be set")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrVariantMismatch = errors.New("generator variant cannot change")
)

// Reasons a nesting is rejected. A *StructureError matches its reason with errors.Is.
var (
	ErrNotAContainer       = errors.New("parent cannot hold children")
	ErrChildKindNotAllowed = errors.New("child not allowed by parent rules")
	ErrUnknownParent       = errors.New("parent component is not in the catalog")
	ErrUnknownChild        = errors.New("child component is not in the catalog")
	ErrCyclicMove          = errors.New("child is the parent or one of its ancestors")
	ErrChildLimitReached   = errors.New("parent already holds its only child")
)

// StructureError is returned when a mutation would break the nesting rules of the tree.
type StructureError struct {
	Reason   error
	ParentID string
	ChildID  string
}

func newStructureError(reason error, parentID, childID string) *StructureError {
	return &StructureError{Reason: reason, ParentID: parentID, ChildID: childID}
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("cannot nest %q under %q: %v", e.ChildID, e.ParentID, e.Reason)
}

func (e *StructureError) Unwrap() error {
	return e.Reason
}

// TreeError collects every problem found while checking a whole tree.
type TreeError struct {
	Errs []error
}

func (e *TreeError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}

	return "invalid tree: " + strings.Join(msgs, "; ")
}

func (e *TreeError) Unwrap() []error {
	return e.Errs
}
