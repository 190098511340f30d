package document

import "github.com/pkg/errors"

var (
	ErrUnsupportedValue  = errors.New("unsupported value")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNotAnObject       = errors.New("value is not an object")
	ErrTrailingData      = errors.New("unexpected data after top-level value")
	ErrUnexpectedToken   = errors.New("unexpected token")
	ErrTooDeep           = errors.New("document nesting too deep")
	ErrDuplicateKey      = errors.New("duplicate mapping key")
)
