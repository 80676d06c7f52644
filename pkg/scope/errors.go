package scope

import "errors"

var (
	// ErrNotFound reports a component or version that is neither stored
	// locally nor resolvable through a remote.
	ErrNotFound = errors.New("component not found")

	// ErrUnchanged reports a commit whose content matches the latest
	// version. Committing with force bypasses it.
	ErrUnchanged = errors.New("component unchanged since latest version")

	// ErrVersionConflict reports a received version number that is already
	// bound to different content.
	ErrVersionConflict = errors.New("version conflict")

	// ErrLocalDependency reports an export whose dependency closure still
	// references components of the local scope.
	ErrLocalDependency = errors.New("dependency not exported")

	ErrAlreadyExists  = errors.New("scope already exists")
	ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")
	ErrRefLocked      = errors.New("ref is locked")
)
