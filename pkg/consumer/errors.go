package consumer

import "errors"

var (
	// ErrNotFound reports that no workspace encloses the given path, or that
	// an inline component does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists reports a workspace or inline component that is
	// already there.
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation reports invalid command options. It is raised before
	// any I/O.
	ErrValidation = errors.New("invalid options")
)
