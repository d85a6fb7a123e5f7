package object

import (
	"errors"
	"fmt"
)

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrCorruptObject   = errors.New("corrupt object")
	ErrIOFailure       = errors.New("i/o failure")
	ErrTypeMismatch    = errors.New("object type mismatch")
	ErrAmbiguousPrefix = errors.New("ambiguous object prefix")
)

// IOError wraps a filesystem failure. It matches ErrIOFailure with
// errors.Is and unwraps to the underlying error.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}

// WrapIO returns nil for a nil err and an *IOError otherwise.
func WrapIO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}
