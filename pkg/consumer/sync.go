package consumer

import (
	"context"
	"fmt"
	"strings"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
	"github.com/odvcencio/bit/pkg/scope"
)

// CommitOptions controls Commit.
type CommitOptions struct {
	Message string
	Force   bool
}

// Commit turns an inline component into a new version: load, put into the
// scope, write the committed closure into the components directory, remove
// the inline copy, index. The inline copy is only removed once the version
// is stored and materialized.
func (c *Consumer) Commit(ctx context.Context, id InlineID, opts CommitOptions) (*component.Component, error) {
	inline, err := c.LoadComponent(id)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", id, err)
	}
	cd, err := c.scope.Put(ctx, inline, scope.PutOptions{Message: opts.Message, Force: opts.Force})
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", id, err)
	}
	if _, err := c.WriteToComponentsDir(ctx, []component.ComponentDependencies{cd}); err != nil {
		return nil, fmt.Errorf("commit %s: %w", id, err)
	}
	if err := c.RemoveFromInline(id); err != nil {
		return nil, fmt.Errorf("commit %s: %w", id, err)
	}
	if err := c.indexer.Index(ctx, cd.Component, c.scope.Path()); err != nil {
		c.logger.Warn("index update failed", "id", cd.Component.ID().String(), "err", err)
	}
	return cd.Component, nil
}

// Import materializes components into the components directory. With an
// empty rawID it imports every dependency declared in bit.json, then the
// workspace compiler and tester; otherwise it imports rawID's closure.
func (c *Consumer) Import(ctx context.Context, rawID string) ([]*component.Component, error) {
	if strings.TrimSpace(rawID) != "" {
		id, err := c.parseID(rawID)
		if err != nil {
			return nil, err
		}
		cd, err := c.scope.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", id, err)
		}
		return c.WriteToComponentsDir(ctx, []component.ComponentDependencies{cd})
	}

	deps, err := c.bitJSON.DependencyIDs(c.scope.Name())
	if err != nil {
		return nil, fmt.Errorf("import: %w: %v", ErrValidation, err)
	}
	tester, err := c.TesterID()
	if err != nil {
		return nil, fmt.Errorf("import: %w: tester: %v", ErrValidation, err)
	}
	compiler, err := c.CompilerID()
	if err != nil {
		return nil, fmt.Errorf("import: %w: compiler: %v", ErrValidation, err)
	}

	cds, err := c.scope.GetMany(ctx, deps)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	written, err := c.WriteToComponentsDir(ctx, cds)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	envs, err := c.scope.InstallEnvironment(ctx, scope.EnvironmentOptions{
		IDs:    []*bitid.BitID{tester, compiler},
		Writer: c,
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return append(written, envs...), nil
}

// ImportEnvironment installs a single compiler or tester component.
func (c *Consumer) ImportEnvironment(ctx context.Context, rawID string) ([]*component.Component, error) {
	if strings.TrimSpace(rawID) == "" {
		return nil, fmt.Errorf("%w: an environment import needs a component id", ErrValidation)
	}
	id, err := c.parseID(rawID)
	if err != nil {
		return nil, err
	}
	return c.scope.InstallEnvironment(ctx, scope.EnvironmentOptions{
		IDs:    []*bitid.BitID{&id},
		Writer: c,
	})
}

// ImportOptions are the options of the import command.
type ImportOptions struct {
	ID       string
	Save     bool
	Tester   bool
	Compiler bool
	Verbose  bool
}

// Validate rejects option combinations that cannot run.
func (o ImportOptions) Validate() error {
	if o.Tester && o.Compiler {
		return fmt.Errorf("%w: tester and compiler cannot be combined", ErrValidation)
	}
	if (o.Tester || o.Compiler) && strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("%w: an environment import needs a component id", ErrValidation)
	}
	return nil
}

// ImportAction runs the import command. Options are validated before any
// I/O. With Save, the imported component is recorded in bit.json as a
// dependency, or as the workspace tester or compiler.
func (c *Consumer) ImportAction(ctx context.Context, opts ImportOptions) ([]*component.Component, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var (
		imported []*component.Component
		err      error
	)
	if opts.Tester || opts.Compiler {
		imported, err = c.ImportEnvironment(ctx, opts.ID)
	} else {
		imported, err = c.Import(ctx, opts.ID)
	}
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		for _, comp := range imported {
			c.logger.Info("imported", "id", comp.ID().String())
		}
	}

	if opts.Save && opts.ID != "" && len(imported) > 0 {
		// Flattening puts the requested component first.
		root := imported[0].ID()
		switch {
		case opts.Tester:
			c.bitJSON.Env.Tester = root.String()
		case opts.Compiler:
			c.bitJSON.Env.Compiler = root.String()
		default:
			c.bitJSON.SetDependency(root)
		}
		if err := c.Write(); err != nil {
			return nil, err
		}
	}
	return imported, nil
}

// ExportAction pushes a committed component to a remote, materializes the
// remote's copy and removes the local-scope copy so the component is not
// present twice under different scope names.
func (c *Consumer) ExportAction(ctx context.Context, rawID, rawRemote string) (*component.Component, error) {
	remoteName := strings.TrimSpace(rawRemote)
	if remoteName == "" {
		return nil, fmt.Errorf("%w: export needs a remote", ErrValidation)
	}
	id, err := c.parseID(rawID)
	if err != nil {
		return nil, err
	}
	cd, err := c.scope.ExportAction(ctx, id, remoteName)
	if err != nil {
		return nil, err
	}
	if _, err := c.WriteToComponentsDir(ctx, []component.ComponentDependencies{cd}); err != nil {
		return nil, err
	}
	local := id.ChangeScope(c.scope.Name()).ChangeVersion(bitid.LatestVersion)
	if err := c.RemoveFromComponents(local); err != nil {
		return nil, err
	}
	return cd.Component, nil
}

// Show returns the stored component id, or every stored version of it.
func (c *Consumer) Show(ctx context.Context, rawID string, allVersions bool) ([]*component.Component, error) {
	id, err := c.parseID(rawID)
	if err != nil {
		return nil, err
	}
	if !allVersions {
		cd, err := c.scope.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return []*component.Component{cd.Component}, nil
	}

	if _, err := c.scope.Get(ctx, id.ChangeVersion(bitid.LatestVersion)); err != nil {
		return nil, err
	}
	versions, err := c.scope.Versions(id)
	if err != nil {
		return nil, err
	}
	ids := make(bitid.BitIDs, 0, len(versions))
	for _, v := range versions {
		ids = append(ids, id.ChangeVersion(v))
	}
	cds, err := c.scope.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*component.Component, 0, len(cds))
	for _, cd := range cds {
		out = append(out, cd.Component)
	}
	return out, nil
}
