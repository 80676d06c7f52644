package scope

import (
	"context"
	"fmt"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
)

// ExportAction pushes the local component id, with its object closure, to
// the remote named remoteName and returns the component as the remote now
// serves it: same version, scope set to the remote's name.
//
// Components whose flattened dependencies still live in the local scope
// cannot be exported: the remote could never resolve them.
func (s *Scope) ExportAction(ctx context.Context, id bitid.BitID, remoteName string) (component.ComponentDependencies, error) {
	if id.Scope == "" {
		id = id.ChangeScope(s.name)
	}
	fail := func(err error) (component.ComponentDependencies, error) {
		return component.ComponentDependencies{}, fmt.Errorf("export %s: %w", id, err)
	}
	if id.Scope != s.name {
		return fail(fmt.Errorf("component belongs to scope %q, not %q", id.Scope, s.name))
	}

	remote, err := s.remote(ctx, remoteName)
	if err != nil {
		return fail(err)
	}

	rec, _, err := s.loadRecord(id)
	if err != nil {
		return fail(err)
	}
	vref, version, ok := rec.VersionRef(id.Version)
	if !ok {
		return fail(ErrNotFound)
	}
	v, err := s.repo.LoadVersion(vref)
	if err != nil {
		return fail(err)
	}
	for _, dep := range v.FlattenedDependencies {
		if dep.Scope == s.name {
			return fail(fmt.Errorf("%w: %s", ErrLocalDependency, dep))
		}
	}

	b, err := s.Bundle(ctx, bitid.BitIDs{id.ChangeVersion(version)})
	if err != nil {
		return fail(err)
	}
	if err := remote.Push(ctx, b); err != nil {
		return fail(fmt.Errorf("push to %s: %w", remoteName, err))
	}
	s.logger.Info("component exported", "id", id.ChangeVersion(version).String(), "remote", remoteName)

	remoteID := id.ChangeScope(remoteName).ChangeVersion(version)
	if err := s.fetch(ctx, remoteID.Scope, bitid.BitIDs{remoteID}); err != nil {
		return fail(err)
	}
	return s.Get(ctx, remoteID)
}
