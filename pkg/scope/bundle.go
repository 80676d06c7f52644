package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/object"
)

// Bundle is the unit of exchange between scopes: Component records (heads)
// and the compressed objects of their closure.
type Bundle struct {
	Heads   []Head   `json:"heads"`
	Objects []Object `json:"objects"`
}

// Head names a Component record carried by a bundle.
type Head struct {
	// ID is scope/box/name as seen by the sender.
	ID  string     `json:"id"`
	Ref object.Ref `json:"ref"`
}

// Object is a record in its stored, compressed form.
type Object struct {
	Ref object.Ref `json:"ref"`
	Raw []byte     `json:"raw"`
}

// Bundle collects the Component records of ids together with the Component
// records of their flattened dependencies owned by this scope, and every
// object those records reach.
func (s *Scope) Bundle(ctx context.Context, ids bitid.BitIDs) (*Bundle, error) {
	b := &Bundle{}
	seen := make(map[string]bool)
	var roots []object.Ref

	queue := append(bitid.BitIDs(nil), ids...)
	for i := 0; i < len(queue); i++ {
		if err := s.checkContext(ctx); err != nil {
			return nil, err
		}
		id := queue[i].ChangeScope(s.name)
		key := id.WithoutVersion()
		if seen[key] {
			continue
		}
		seen[key] = true

		rec, ref, err := s.loadRecord(id)
		if err != nil {
			return nil, fmt.Errorf("bundle: %w", err)
		}
		vref, _, ok := rec.VersionRef(id.Version)
		if !ok {
			return nil, fmt.Errorf("bundle %s: %w", id, ErrNotFound)
		}
		v, err := s.repo.LoadVersion(vref)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", id, err)
		}
		for _, dep := range v.FlattenedDependencies {
			if dep.Scope == s.name {
				queue = append(queue, dep)
			}
		}
		b.Heads = append(b.Heads, Head{ID: key, Ref: ref})
		roots = append(roots, ref)
	}

	set, err := s.repo.ReachableSet(roots)
	if err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	for _, ref := range object.SortedRefs(set) {
		raw, err := s.repo.LoadRaw(ref)
		if err != nil {
			return nil, fmt.Errorf("bundle: %w", err)
		}
		b.Objects = append(b.Objects, Object{Ref: ref, Raw: raw})
	}
	s.logger.Debug("bundle built", "heads", len(b.Heads), "objects", len(b.Objects))
	return b, nil
}

// Receive adopts a bundle pushed by another scope: objects are verified
// and stored, and each head is re-scoped to this scope and merged into the
// local Component record. A version number already bound to a different
// Version fails with ErrVersionConflict.
func (s *Scope) Receive(ctx context.Context, b *Bundle) error {
	return s.receive(ctx, b, s.name, false)
}

// receive stores b and merges its heads under scopeName. When
// authoritative, incoming versions replace conflicting local ones.
func (s *Scope) receive(ctx context.Context, b *Bundle, scopeName string, authoritative bool) error {
	if b == nil {
		return fmt.Errorf("receive: nil bundle")
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}
	for _, obj := range b.Objects {
		if err := s.checkContext(ctx); err != nil {
			return err
		}
		if err := s.repo.WriteRaw(obj.Ref, obj.Raw); err != nil {
			return fmt.Errorf("receive: %w", err)
		}
	}

	for _, h := range b.Heads {
		if err := s.checkContext(ctx); err != nil {
			return err
		}
		// Every head must arrive with its complete closure.
		if _, err := s.repo.ReachableSet([]object.Ref{h.Ref}); err != nil {
			return fmt.Errorf("receive %s: %w", h.ID, err)
		}
		incoming, err := s.repo.LoadComponent(h.Ref)
		if err != nil {
			return fmt.Errorf("receive %s: %w", h.ID, err)
		}
		incoming = incoming.ChangeScope(scopeName)

		existing, oldRef, err := s.loadRecord(incoming.BitID(bitid.LatestVersion))
		switch {
		case errors.Is(err, ErrNotFound):
			existing, oldRef = nil, ""
		case err != nil:
			return fmt.Errorf("receive %s: %w", h.ID, err)
		}

		merged, err := mergeRecords(existing, incoming, authoritative)
		if err != nil {
			return fmt.Errorf("receive %s: %w", h.ID, err)
		}
		ref, err := s.updateRecord(merged, oldRef)
		if err != nil {
			return fmt.Errorf("receive %s: %w", h.ID, err)
		}
		s.logger.Debug("component received",
			"id", merged.BitID(bitid.LatestVersion).WithoutVersion(),
			"versions", len(merged.Versions),
			"ref", ref.Short(),
		)
	}
	return nil
}

func mergeRecords(existing, incoming *object.Component, authoritative bool) (*object.Component, error) {
	if existing == nil {
		return incoming, nil
	}
	merged := existing
	for _, v := range incoming.VersionNumbers() {
		ref := incoming.Versions[v]
		if have, ok := merged.Versions[v]; ok && have != ref && !authoritative {
			return nil, fmt.Errorf("%w: version %d is %s here, %s incoming", ErrVersionConflict, v, have.Short(), ref.Short())
		}
		merged = merged.WithVersion(v, ref)
	}
	return merged, nil
}
