package scope

import (
	"context"
	"fmt"

	"github.com/odvcencio/bit/pkg/bitid"
)

// Remote is another scope reachable through some transport.
type Remote interface {
	// Name is the scope name the remote's components are known by.
	Name() string
	// Fetch returns a bundle holding the Component records of ids and
	// everything they reach, plus same-scope flattened dependencies.
	Fetch(ctx context.Context, ids bitid.BitIDs) (*Bundle, error)
	// Push hands a bundle to the remote, which adopts its components.
	Push(ctx context.Context, b *Bundle) error
}

// Remotes resolves a scope name to a Remote.
type Remotes interface {
	Resolve(ctx context.Context, name string) (Remote, error)
}

func (s *Scope) remote(ctx context.Context, name string) (Remote, error) {
	if s.remotes == nil {
		return nil, fmt.Errorf("remote %q: no remotes configured: %w", name, ErrNotFound)
	}
	r, err := s.remotes.Resolve(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("remote %q: %w", name, err)
	}
	return r, nil
}
