package object

import (
	"errors"
	"fmt"
)

// ErrConsistency marks a ref that is referenced but absent from the store.
// It means the store itself is corrupt and is never retried.
var ErrConsistency = errors.New("object store consistency violation")

// ErrDecode marks stored bytes that do not parse as their declared kind.
var ErrDecode = errors.New("object decode failed")

// ConsistencyError reports a missing object.
type ConsistencyError struct {
	Ref Ref
	Err error
}

func (e *ConsistencyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: object %s is missing: %v", ErrConsistency, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s: object %s is missing", ErrConsistency, e.Ref)
}

func (e *ConsistencyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// DecodeError reports an object whose bytes are corrupt. Ref is empty when
// the bytes were not read from the store.
type DecodeError struct {
	Ref  Ref
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	where := "object"
	if e.Ref != "" {
		where = "object " + string(e.Ref)
	}
	if e.Kind != "" {
		where += " (" + string(e.Kind) + ")"
	}
	return fmt.Sprintf("%s: %s: %v", ErrDecode, where, e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func withRef(err error, ref Ref) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Ref == "" {
		out := *de
		out.Ref = ref
		return &out
	}
	return err
}
