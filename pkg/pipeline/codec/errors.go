package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotAPipeline  = errors.New("top-level value must be a sequence, a mapping or a string")
	ErrMalformedNode = errors.New("malformed node")
)

// DecodeError is returned when a document cannot be decoded at all. No partial result is
// produced.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode pipeline document: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
