package scope

import (
	"context"
	"fmt"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
)

// ComponentsWriter materializes resolved components into a workspace.
type ComponentsWriter interface {
	WriteToComponentsDir(ctx context.Context, cds []component.ComponentDependencies) ([]*component.Component, error)
}

// EnvironmentOptions selects the environment components to install.
type EnvironmentOptions struct {
	// IDs are the compiler and tester ids; nil entries are skipped.
	IDs    []*bitid.BitID
	Writer ComponentsWriter
}

// InstallEnvironment resolves the compiler and tester components and
// writes them, with their dependencies, through opts.Writer.
func (s *Scope) InstallEnvironment(ctx context.Context, opts EnvironmentOptions) ([]*component.Component, error) {
	var ids bitid.BitIDs
	for _, id := range opts.IDs {
		if id == nil || id.IsZero() {
			continue
		}
		ids = ids.Add(*id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if opts.Writer == nil {
		return nil, fmt.Errorf("install environment: no writer")
	}
	s.logger.Debug("installing environment", "ids", ids.Strings())

	cds, err := s.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("install environment: %w", err)
	}
	return opts.Writer.WriteToComponentsDir(ctx, cds)
}
