package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
	"github.com/odvcencio/bit/pkg/diff"
	"github.com/odvcencio/bit/pkg/scope"
)

// State is the commit state of an inline component.
type State int

const (
	// StateNew: never committed to the workspace scope.
	StateNew State = iota
	// StateModified: differs from the latest committed version.
	StateModified
	// StateUnchanged: committing it would fail with scope.ErrUnchanged.
	StateUnchanged
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateModified:
		return "modified"
	default:
		return "unchanged"
	}
}

// StatusEntry is the state of one inline component. Latest is the latest
// committed id, zero for new components.
type StatusEntry struct {
	ID     InlineID
	State  State
	Latest bitid.BitID
}

// Status reports every inline component against its latest committed
// version, sorted by box and name. Declared dependencies are resolved as
// Commit resolves them, so a dependency that gained a version since the
// last commit makes its dependents modified.
func (c *Consumer) Status(ctx context.Context) ([]StatusEntry, error) {
	inline, err := c.ListInline()
	if err != nil {
		return nil, err
	}
	out := make([]StatusEntry, 0, len(inline))
	for _, comp := range inline {
		id := InlineID{Box: comp.Box, Name: comp.Name}
		changed, latest, err := c.scope.Changed(ctx, comp)
		if err != nil {
			return nil, fmt.Errorf("status %s: %w", id, err)
		}
		entry := StatusEntry{ID: id, State: StateNew, Latest: latest}
		switch {
		case latest.IsZero():
		case changed:
			entry.State = StateModified
		default:
			entry.State = StateUnchanged
		}
		out = append(out, entry)
	}
	return out, nil
}

// Diff compares an inline component with its latest committed version.
// A component that was never committed diffs against nothing.
func (c *Consumer) Diff(ctx context.Context, id InlineID) (*diff.ComponentDiff, error) {
	inline, err := c.LoadComponent(id)
	if err != nil {
		return nil, err
	}
	latest, err := c.latestCommitted(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", id, err)
	}
	return diff.Components(latest, inline), nil
}

// latestCommitted returns the latest version of id in the workspace scope,
// nil when there is none.
func (c *Consumer) latestCommitted(ctx context.Context, id InlineID) (*component.Component, error) {
	bid := bitid.BitID{Scope: c.scope.Name(), Box: id.Box, Name: id.Name}
	cd, err := c.scope.Get(ctx, bid)
	if errors.Is(err, scope.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cd.Component, nil
}
