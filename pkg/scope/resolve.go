package scope

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
	"github.com/odvcencio/bit/pkg/object"
)

// Get resolves id to its stored component together with its recursively
// resolved dependencies. Ids without a scope belong to the local scope.
func (s *Scope) Get(ctx context.Context, id bitid.BitID) (component.ComponentDependencies, error) {
	out, err := s.GetMany(ctx, bitid.BitIDs{id})
	if err != nil {
		return component.ComponentDependencies{}, err
	}
	return out[0], nil
}

// GetMany resolves every id, in order. Components of other scopes are read
// from the local cache when the requested version is there and fetched
// from the scope's remote otherwise, one fetch per remote scope.
func (s *Scope) GetMany(ctx context.Context, ids bitid.BitIDs) ([]component.ComponentDependencies, error) {
	r := &resolver{
		s:       s,
		done:    make(map[bitid.BitID]component.ComponentDependencies),
		active:  make(map[bitid.BitID]bool),
		fetched: make(map[string]bool),
	}
	if err := r.prefetch(ctx, ids); err != nil {
		return nil, err
	}

	out := make([]component.ComponentDependencies, 0, len(ids))
	for _, id := range ids {
		cd, err := r.resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, cd)
	}
	return out, nil
}

// resolver memoizes resolution for the duration of one GetMany call.
type resolver struct {
	s       *Scope
	done    map[bitid.BitID]component.ComponentDependencies
	active  map[bitid.BitID]bool
	fetched map[string]bool
}

func (r *resolver) normalize(id bitid.BitID) bitid.BitID {
	if id.Scope == "" {
		return id.ChangeScope(r.s.name)
	}
	return id
}

// prefetch groups the foreign ids that miss the cache by scope and fetches
// each group with a single request.
func (r *resolver) prefetch(ctx context.Context, ids bitid.BitIDs) error {
	groups := make(map[string]bitid.BitIDs)
	for _, id := range ids {
		id = r.normalize(id)
		if id.Scope == r.s.name || r.cached(id) {
			continue
		}
		groups[id.Scope] = groups[id.Scope].Add(id)
	}
	scopes := make([]string, 0, len(groups))
	for name := range groups {
		scopes = append(scopes, name)
	}
	sort.Strings(scopes)

	for _, name := range scopes {
		if err := r.fetch(ctx, name, groups[name]); err != nil {
			return err
		}
	}
	return nil
}

// cached reports whether a pinned version of a foreign id is in the cache.
// Latest always goes to the remote.
func (r *resolver) cached(id bitid.BitID) bool {
	if id.Version == bitid.LatestVersion {
		return false
	}
	rec, _, err := r.s.loadRecord(id)
	if err != nil {
		return false
	}
	_, ok := rec.Versions[id.Version]
	return ok
}

// fetch pulls ids from the remote of scopeName into the cache. A failed
// fetch is tolerated when every id can still be served from the cache.
func (r *resolver) fetch(ctx context.Context, scopeName string, ids bitid.BitIDs) error {
	for _, id := range ids {
		r.fetched[id.WithoutVersion()] = true
	}
	err := r.s.fetch(ctx, scopeName, ids)
	if err == nil {
		return nil
	}
	for _, id := range ids {
		if _, _, lerr := r.s.loadRecord(id); lerr != nil {
			return err
		}
	}
	r.s.logger.Warn("fetch failed, using cached components", "scope", scopeName, "err", err)
	return nil
}

func (r *resolver) record(ctx context.Context, id bitid.BitID) (*object.Component, error) {
	if id.Scope != r.s.name && !r.fetched[id.WithoutVersion()] && !r.cached(id) {
		if err := r.fetch(ctx, id.Scope, bitid.BitIDs{id}); err != nil {
			return nil, err
		}
	}
	rec, _, err := r.s.loadRecord(id)
	return rec, err
}

func (r *resolver) resolve(ctx context.Context, id bitid.BitID) (component.ComponentDependencies, error) {
	if err := r.s.checkContext(ctx); err != nil {
		return component.ComponentDependencies{}, err
	}
	id = r.normalize(id)

	rec, err := r.record(ctx, id)
	if err != nil {
		return component.ComponentDependencies{}, err
	}
	vref, version, ok := rec.VersionRef(id.Version)
	if !ok {
		return component.ComponentDependencies{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	resolved := id.ChangeVersion(version)
	if cd, ok := r.done[resolved]; ok {
		return cd, nil
	}
	if r.active[resolved] {
		return component.ComponentDependencies{}, fmt.Errorf("resolve %s: dependency cycle", resolved)
	}
	r.active[resolved] = true
	defer delete(r.active, resolved)

	v, err := r.s.repo.LoadVersion(vref)
	if err != nil {
		return component.ComponentDependencies{}, fmt.Errorf("resolve %s: %w", resolved, err)
	}
	c, err := component.FromVersion(resolved, v, r.s.repo)
	if err != nil {
		return component.ComponentDependencies{}, err
	}

	deps := make([]component.ComponentDependencies, 0, len(v.Dependencies))
	for _, dep := range v.Dependencies {
		d, err := r.resolve(ctx, dep)
		if err != nil {
			return component.ComponentDependencies{}, fmt.Errorf("resolve %s: %w", resolved, err)
		}
		deps = append(deps, d)
	}

	cd := component.ComponentDependencies{Component: c, Dependencies: deps}
	r.done[resolved] = cd
	return cd, nil
}

// fetch pulls ids from the remote named scopeName into the local cache.
func (s *Scope) fetch(ctx context.Context, scopeName string, ids bitid.BitIDs) error {
	remote, err := s.remote(ctx, scopeName)
	if err != nil {
		return err
	}
	s.logger.Debug("fetching", "remote", scopeName, "ids", ids.Strings())
	b, err := remote.Fetch(ctx, ids)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("fetch from %s: %w", scopeName, err)
	}
	return s.receive(ctx, b, scopeName, true)
}
