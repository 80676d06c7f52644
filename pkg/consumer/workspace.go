package consumer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
	"github.com/odvcencio/bit/pkg/flatten"
)

// CreateOptions controls CreateBit.
type CreateOptions struct {
	ID          InlineID
	WithSpecs   bool
	WithBitJSON bool
}

// CreateBit scaffolds a new inline component.
func (c *Consumer) CreateBit(opts CreateOptions) (*component.Component, error) {
	dir, err := underRoot(c.InlineComponentsPath(), opts.ID.Box, opts.ID.Name)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", opts.ID, err)
	}
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("create %s: %w", opts.ID, ErrAlreadyExists)
	}
	comp, err := component.Create(opts.ID.Box, opts.ID.Name, opts.WithSpecs, c.bitJSON, c.scope.Name())
	if err != nil {
		return nil, err
	}
	if err := comp.Write(dir, opts.WithBitJSON); err != nil {
		return nil, err
	}
	c.logger.Debug("inline component created", "id", opts.ID.String(), "dir", dir)
	return comp, nil
}

// LoadComponent loads an inline component.
func (c *Consumer) LoadComponent(id InlineID) (*component.Component, error) {
	dir := id.dir(c.InlineComponentsPath())
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("inline component %s: %w", id, ErrNotFound)
	}
	return component.LoadInline(dir, id.Box, id.Name, c.bitJSON, c.scope.Name())
}

// RemoveFromInline deletes an inline component and prunes the parent
// directories it leaves empty.
func (c *Consumer) RemoveFromInline(id InlineID) error {
	dir, err := underRoot(c.InlineComponentsPath(), id.Box, id.Name)
	if err != nil {
		return fmt.Errorf("remove inline %s: %w", id, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove inline %s: %w", id, err)
	}
	return removeEmptyParents(dir, c.InlineComponentsPath())
}

// RemoveFromComponents deletes the materialized copies of id under its
// scope: a single version directory when id has a version, every version
// otherwise. Emptied parents are pruned.
func (c *Consumer) RemoveFromComponents(id bitid.BitID) error {
	segs := []string{id.Box, id.Name, id.Scope}
	if id.HasVersion() {
		segs = append(segs, strconv.Itoa(id.Version))
	}
	dir, err := underRoot(c.ComponentsPath(), segs...)
	if err != nil {
		return fmt.Errorf("remove component %s: %w", id, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove component %s: %w", id, err)
	}
	return removeEmptyParents(dir, c.ComponentsPath())
}

// removeEmptyParents removes the now-empty ancestors of dir, stopping at
// root, which is kept.
func removeEmptyParents(dir, root string) error {
	root = filepath.Clean(root)
	for cur := filepath.Dir(filepath.Clean(dir)); cur != root && len(cur) > len(root); cur = filepath.Dir(cur) {
		entries, err := os.ReadDir(cur)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(cur); err != nil {
			return err
		}
	}
	return nil
}

// componentDir returns components/<box>/<name>/<scope>/<version>.
func (c *Consumer) componentDir(comp *component.Component) (string, error) {
	return underRoot(c.ComponentsPath(), comp.Box, comp.Name, comp.Scope, strconv.Itoa(comp.Version))
}

// underRoot joins segs below root. Every segment must be a plain directory
// name and the result must lie strictly inside root.
func underRoot(root string, segs ...string) (string, error) {
	for _, seg := range segs {
		if err := bitid.ValidateSegment(seg); err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	dir := filepath.Join(append([]string{root}, segs...)...)
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrValidation, dir, root)
	}
	return dir, nil
}

// WriteToComponentsDir flattens cds and materializes every component into
// its own version directory. Distinct versions of one component are all
// written; a warning names them.
func (c *Consumer) WriteToComponentsDir(ctx context.Context, cds []component.ComponentDependencies) ([]*component.Component, error) {
	components := flatten.Flatten(cds)
	for _, conflict := range flatten.Conflicts(components) {
		c.logger.Warn("multiple versions of a component in the workspace", "component", conflict.ID, "versions", conflict.Versions)
	}
	for _, comp := range components {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir, err := c.componentDir(comp)
		if err != nil {
			return nil, fmt.Errorf("write component %s: %w", comp.ID(), err)
		}
		if err := comp.Write(dir, true); err != nil {
			return nil, err
		}
		c.logger.Debug("component written", "id", comp.ID().String(), "dir", dir)
	}
	return components, nil
}

// ListInline loads every inline component, sorted by box and name.
func (c *Consumer) ListInline() ([]*component.Component, error) {
	ids, err := listTwoLevels(c.InlineComponentsPath())
	if err != nil {
		return nil, fmt.Errorf("list inline: %w", err)
	}
	out := make([]*component.Component, 0, len(ids))
	for _, raw := range ids {
		id, err := ParseInlineID(raw)
		if err != nil {
			return nil, err
		}
		comp, err := c.LoadComponent(id)
		if err != nil {
			return nil, err
		}
		out = append(out, comp)
	}
	return out, nil
}

// ListComponents returns the ids of every materialized component version.
func (c *Consumer) ListComponents() (bitid.BitIDs, error) {
	root := c.ComponentsPath()
	names, err := listTwoLevels(root)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}
	var out bitid.BitIDs
	for _, boxName := range names {
		scopes, err := subdirs(filepath.Join(root, boxName))
		if err != nil {
			return nil, fmt.Errorf("list components: %w", err)
		}
		for _, sc := range scopes {
			versions, err := subdirs(filepath.Join(root, boxName, sc))
			if err != nil {
				return nil, fmt.Errorf("list components: %w", err)
			}
			for _, v := range versions {
				id, err := bitid.Parse(sc+"/"+boxName+"@"+v, "")
				if err != nil {
					continue
				}
				out = out.Add(id)
			}
		}
	}
	return out, nil
}

// Includes reports whether bitName (box/name) exists in the inline or the
// versioned root.
func (c *Consumer) Includes(inline bool, bitName string) bool {
	root := c.ComponentsPath()
	if inline {
		root = c.InlineComponentsPath()
	}
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(bitName)))
	return err == nil
}

// listTwoLevels returns the "a/b" names of the directories two levels
// below root, sorted. A missing root is empty.
func listTwoLevels(root string) ([]string, error) {
	first, err := subdirs(root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, a := range first {
		second, err := subdirs(filepath.Join(root, a))
		if err != nil {
			return nil, err
		}
		for _, b := range second {
			out = append(out, a+"/"+b)
		}
	}
	return out, nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Remove deletes an inline component, or the materialized copies of a
// versioned one. Nothing stored in the scope is touched.
func (c *Consumer) Remove(rawID string, inline bool) error {
	if inline {
		id, err := ParseInlineID(rawID)
		if err != nil {
			return err
		}
		if !c.Includes(true, id.String()) {
			return fmt.Errorf("inline component %s: %w", id, ErrNotFound)
		}
		return c.RemoveFromInline(id)
	}

	id, err := c.parseID(rawID)
	if err != nil {
		return err
	}
	if !c.Includes(false, id.Box+"/"+id.Name+"/"+id.Scope) {
		return fmt.Errorf("component %s: %w", id, ErrNotFound)
	}
	return c.RemoveFromComponents(id)
}
