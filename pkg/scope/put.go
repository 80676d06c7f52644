package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
	"github.com/odvcencio/bit/pkg/flatten"
	"github.com/odvcencio/bit/pkg/object"
)

// PutOptions controls Put.
type PutOptions struct {
	Message string
	// Force creates a new version even when nothing changed since the
	// latest one.
	Force bool
}

// Put freezes the workspace component c into a new Version of the local
// scope and returns the committed component with its resolved
// dependencies.
//
// Declared dependencies are resolved first (pinning "latest" to a concrete
// version) and their closure is flattened into the Version. Sources, the
// Version and the updated Component record are written before the ref is
// moved, so a failure leaves the previous state visible.
func (s *Scope) Put(ctx context.Context, c *component.Component, opts PutOptions) (component.ComponentDependencies, error) {
	id := bitid.BitID{Scope: s.name, Box: c.Box, Name: c.Name}
	fail := func(err error) (component.ComponentDependencies, error) {
		return component.ComponentDependencies{}, fmt.Errorf("put %s: %w", id.WithoutVersion(), err)
	}
	if err := s.EnsureDir(); err != nil {
		return fail(err)
	}

	st, err := s.stage(ctx, c, opts.Message)
	if err != nil {
		return fail(err)
	}
	v := st.version

	v.Docs = c.Docs
	if v.Docs == nil {
		v.Docs, err = s.docs.Extract(c.ImplFile, c.Impl)
		if err != nil {
			s.logger.Warn("doc extraction failed", "component", id.WithoutVersion(), "err", err)
			v.Docs = nil
		}
	}

	rec, oldRef, err := s.loadRecord(id)
	switch {
	case errors.Is(err, ErrNotFound):
		rec = &object.Component{Scope: s.name, Box: c.Box, Name: c.Name, Versions: map[int]object.Ref{}}
	case err != nil:
		return fail(err)
	}

	if latestRef, _, ok := rec.VersionRef(bitid.LatestVersion); ok && !opts.Force {
		latest, err := s.repo.LoadVersion(latestRef)
		if err != nil {
			return fail(err)
		}
		if v.SameContent(latest) {
			return fail(ErrUnchanged)
		}
	}

	if err := s.checkContext(ctx); err != nil {
		return fail(err)
	}
	for _, src := range st.sources {
		if _, err := s.repo.Write(src); err != nil {
			return fail(err)
		}
	}
	vref, err := s.repo.Write(v)
	if err != nil {
		return fail(err)
	}

	number := rec.Latest() + 1
	if _, err := s.updateRecord(rec.WithVersion(number, vref), oldRef); err != nil {
		return fail(err)
	}
	committedID := id.ChangeVersion(number)
	s.logger.Info("component committed", "id", committedID.String(), "version", vref.Short(), "dependencies", len(v.Dependencies))

	committed, err := component.FromVersion(committedID, v, s.repo)
	if err != nil {
		return fail(err)
	}
	return component.ComponentDependencies{Component: committed, Dependencies: st.deps}, nil
}

// staged is a Version built from a workspace component, not yet written.
type staged struct {
	version *object.Version
	sources []*object.Source
	deps    []component.ComponentDependencies
}

// stage resolves the declared dependencies of c, pinning "latest" to a
// concrete version, and builds the Version a commit of c would write.
// Docs are left empty.
func (s *Scope) stage(ctx context.Context, c *component.Component, message string) (*staged, error) {
	id := bitid.BitID{Scope: s.name, Box: c.Box, Name: c.Name}
	deps, err := s.GetMany(ctx, c.Dependencies)
	if err != nil {
		return nil, err
	}
	direct := make(bitid.BitIDs, 0, len(deps))
	for _, d := range deps {
		direct = direct.Add(d.Component.ID())
	}
	closure := flatten.Flatten(deps)
	for _, conflict := range flatten.Conflicts(closure) {
		s.logger.Warn("dependency version conflict", "component", id.WithoutVersion(), "dependency", conflict.ID, "versions", conflict.Versions)
	}

	props := object.VersionProps{
		ImplName:              c.ImplFile,
		Impl:                  object.NewSource(c.Impl),
		Compiler:              c.CompilerID,
		Tester:                c.TesterID,
		Message:               message,
		Username:              s.user.Name,
		Email:                 s.user.Email,
		Date:                  s.now(),
		SpecsResults:          c.SpecsResults,
		Dependencies:          direct,
		FlattenedDependencies: flatten.IDs(closure),
		PackageDependencies:   c.PackageDependencies,
	}
	sources := []*object.Source{props.Impl}
	if c.Specs != nil {
		props.SpecsName = c.SpecsFile
		props.Specs = object.NewSource(c.Specs)
		sources = append(sources, props.Specs)
	}
	if c.Dist != nil {
		props.DistName = component.DistFile
		props.Dist = object.NewSource(c.Dist)
		sources = append(sources, props.Dist)
	}
	return &staged{version: object.FromComponent(props), sources: sources, deps: deps}, nil
}

// Changed reports whether committing c without Force would create a new
// version, resolving its dependencies the way Put does. latest is the id
// of the newest committed version, zero when c was never committed.
func (s *Scope) Changed(ctx context.Context, c *component.Component) (changed bool, latest bitid.BitID, err error) {
	id := bitid.BitID{Scope: s.name, Box: c.Box, Name: c.Name}
	rec, _, err := s.loadRecord(id)
	if errors.Is(err, ErrNotFound) {
		return true, bitid.BitID{}, nil
	}
	if err != nil {
		return false, bitid.BitID{}, fmt.Errorf("changed %s: %w", id.WithoutVersion(), err)
	}
	latestRef, number, ok := rec.VersionRef(bitid.LatestVersion)
	if !ok {
		return true, bitid.BitID{}, nil
	}
	committed, err := s.repo.LoadVersion(latestRef)
	if err != nil {
		return false, bitid.BitID{}, fmt.Errorf("changed %s: %w", id.WithoutVersion(), err)
	}
	st, err := s.stage(ctx, c, "")
	if err != nil {
		return false, bitid.BitID{}, fmt.Errorf("changed %s: %w", id.WithoutVersion(), err)
	}
	return !st.version.SameContent(committed), id.ChangeVersion(number), nil
}
