package schema

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMissingID            = errors.New("entry has no id")
	ErrDuplicateID          = errors.New("duplicate id")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownSubcategory   = errors.New("unknown subcategory")
	ErrInvalidNodeType      = errors.New("invalid node type")
	ErrInvalidParameterType = errors.New("invalid parameter type")
	ErrDuplicateKeyword     = errors.New("container keyword already in use")
)

// SchemaLoadError is returned when the component catalog cannot be read or is malformed.
type SchemaLoadError struct {
	Source string
	Err    error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("unable to load component schema from %s: %v", e.Source, e.Err)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Err
}

func loadError(source string, err error) error {
	return &SchemaLoadError{Source: source, Err: err}
}
