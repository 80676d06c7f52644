// Package component models a component as it lives in a workspace: either
// an unversioned inline copy or a materialized, versioned one.
package component

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/object"
)

const implTemplate = "/**\n * %s\n */\nmodule.exports = function %s() {};\n"

// Component is a workspace component. Impl is required; Specs and Dist are
// nil when absent.
type Component struct {
	Scope   string
	Box     string
	Name    string
	Version int

	ImplFile  string
	Impl      []byte
	SpecsFile string
	Specs     []byte
	Dist      []byte

	CompilerID *bitid.BitID
	TesterID   *bitid.BitID

	Dependencies        bitid.BitIDs
	PackageDependencies map[string]string

	Docs         []object.Doclet
	SpecsResults *object.SpecsResults
}

// ComponentDependencies is a resolved component together with its resolved
// direct dependencies, each carrying its own, recursively. It is never
// persisted.
type ComponentDependencies struct {
	Component    *Component
	Dependencies []ComponentDependencies
}

// ID returns the component's identity.
func (c *Component) ID() bitid.BitID {
	return bitid.BitID{Scope: c.Scope, Box: c.Box, Name: c.Name, Version: c.Version}
}

// Create scaffolds a new inline component with an empty implementation.
func Create(box, name string, withSpecs bool, consumer *BitJSON, defaultScope string) (*Component, error) {
	if consumer == nil {
		consumer = DefaultBitJSON()
	}
	c := &Component{
		Box:                 box,
		Name:                name,
		ImplFile:            consumer.Sources.Impl,
		Impl:                []byte(fmt.Sprintf(implTemplate, name, name)),
		SpecsFile:           consumer.Sources.Spec,
		Dependencies:        bitid.BitIDs{},
		PackageDependencies: map[string]string{},
	}
	if withSpecs {
		c.Specs = []byte{}
	}
	var err error
	if c.CompilerID, err = consumer.CompilerID(defaultScope); err != nil {
		return nil, fmt.Errorf("create component: compiler: %w", err)
	}
	if c.TesterID, err = consumer.TesterID(defaultScope); err != nil {
		return nil, fmt.Errorf("create component: tester: %w", err)
	}
	return c, nil
}

// LoadInline loads an unversioned component from dir. Settings missing from
// the component's own bit.json fall back to the workspace's.
func LoadInline(dir, box, name string, consumer *BitJSON, defaultScope string) (*Component, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("load component %s/%s: %w", box, name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("load component %s/%s: %s is not a directory", box, name, dir)
	}

	bj := consumer
	if bj == nil {
		bj = DefaultBitJSON()
	}
	own, err := readRawBitJSON(dir)
	if err != nil {
		if !isNotExist(err) {
			return nil, fmt.Errorf("load component %s/%s: %w", box, name, err)
		}
		own = &BitJSON{}
	}
	bj = mergeBitJSON(bj, own)

	c := &Component{
		Box:                 box,
		Name:                name,
		ImplFile:            bj.Sources.Impl,
		SpecsFile:           bj.Sources.Spec,
		PackageDependencies: bj.PackageDependencies,
	}
	if err := c.readFiles(dir); err != nil {
		return nil, fmt.Errorf("load component %s/%s: %w", box, name, err)
	}
	if c.Dependencies, err = bj.DependencyIDs(defaultScope); err != nil {
		return nil, fmt.Errorf("load component %s/%s: dependencies: %w", box, name, err)
	}
	if c.Dependencies == nil {
		c.Dependencies = bitid.BitIDs{}
	}
	if c.CompilerID, err = bj.CompilerID(defaultScope); err != nil {
		return nil, fmt.Errorf("load component %s/%s: compiler: %w", box, name, err)
	}
	if c.TesterID, err = bj.TesterID(defaultScope); err != nil {
		return nil, fmt.Errorf("load component %s/%s: tester: %w", box, name, err)
	}
	return c, nil
}

// mergeBitJSON overlays the non-default settings of own onto base.
func mergeBitJSON(base, own *BitJSON) *BitJSON {
	out := *base
	if own.Sources.Impl != "" {
		out.Sources.Impl = own.Sources.Impl
	}
	if own.Sources.Spec != "" {
		out.Sources.Spec = own.Sources.Spec
	}
	if own.Env.Compiler != "" {
		out.Env.Compiler = own.Env.Compiler
	}
	if own.Env.Tester != "" {
		out.Env.Tester = own.Env.Tester
	}
	// Workspace dependencies are not inherited by components.
	out.Dependencies = own.Dependencies
	out.PackageDependencies = own.PackageDependencies
	return &out
}

func (c *Component) readFiles(dir string) error {
	if err := checkLocalName(c.ImplFile); err != nil {
		return err
	}
	impl, err := os.ReadFile(filepath.Join(dir, c.ImplFile))
	if err != nil {
		return fmt.Errorf("read impl: %w", err)
	}
	c.Impl = impl

	if c.SpecsFile != "" {
		if err := checkLocalName(c.SpecsFile); err != nil {
			return err
		}
		specs, err := os.ReadFile(filepath.Join(dir, c.SpecsFile))
		switch {
		case err == nil:
			c.Specs = specs
		case !isNotExist(err):
			return fmt.Errorf("read specs: %w", err)
		}
	}

	dist, err := os.ReadFile(filepath.Join(dir, DistDir, DistFile))
	switch {
	case err == nil:
		c.Dist = dist
	case !isNotExist(err):
		return fmt.Errorf("read dist: %w", err)
	}
	return nil
}

// Write materializes the component into dir. withBitJSON also writes the
// component's own bit.json, identity included.
func (c *Component) Write(dir string, withBitJSON bool) error {
	if err := checkLocalName(c.ImplFile); err != nil {
		return fmt.Errorf("write component %s: %w", c.ID(), err)
	}
	if err := writeFileAtomic(dir, c.ImplFile, c.Impl); err != nil {
		return fmt.Errorf("write component %s: %w", c.ID(), err)
	}
	if c.Specs != nil {
		if err := checkLocalName(c.SpecsFile); err != nil {
			return fmt.Errorf("write component %s: %w", c.ID(), err)
		}
		if err := writeFileAtomic(dir, c.SpecsFile, c.Specs); err != nil {
			return fmt.Errorf("write component %s: %w", c.ID(), err)
		}
	}
	if c.Dist != nil {
		if err := writeFileAtomic(filepath.Join(dir, DistDir), DistFile, c.Dist); err != nil {
			return fmt.Errorf("write component %s: %w", c.ID(), err)
		}
	}
	if withBitJSON {
		if err := WriteBitJSON(dir, c.BitJSON()); err != nil {
			return fmt.Errorf("write component %s: %w", c.ID(), err)
		}
	}
	return nil
}

// BitJSON returns the component's own bit.json.
func (c *Component) BitJSON() *BitJSON {
	bj := &BitJSON{
		Name:                c.Name,
		Box:                 c.Box,
		Scope:               c.Scope,
		Sources:             Sources{Impl: c.ImplFile, Spec: c.SpecsFile},
		Env:                 Env{Compiler: envString(c.CompilerID), Tester: envString(c.TesterID)},
		Dependencies:        c.Dependencies.ToMap(),
		PackageDependencies: c.PackageDependencies,
	}
	if c.Version != bitid.LatestVersion {
		bj.Version = strconv.Itoa(c.Version)
	}
	return bj
}

// FromVersion rebuilds the component id was committed as, reading its
// sources from repo.
func FromVersion(id bitid.BitID, v *object.Version, repo *object.Repository) (*Component, error) {
	impl, err := repo.LoadSource(v.Impl.File)
	if err != nil {
		return nil, fmt.Errorf("component %s: impl: %w", id, err)
	}
	c := &Component{
		Scope:               id.Scope,
		Box:                 id.Box,
		Name:                id.Name,
		Version:             id.Version,
		ImplFile:            v.Impl.Name,
		Impl:                impl.Data,
		CompilerID:          v.Compiler,
		TesterID:            v.Tester,
		Dependencies:        v.Dependencies,
		PackageDependencies: v.PackageDependencies,
		Docs:                v.Docs,
		SpecsResults:        v.SpecsResults,
	}
	if v.Specs != nil {
		specs, err := repo.LoadSource(v.Specs.File)
		if err != nil {
			return nil, fmt.Errorf("component %s: specs: %w", id, err)
		}
		c.SpecsFile = v.Specs.Name
		c.Specs = specs.Data
	}
	if v.Dist != nil {
		dist, err := repo.LoadSource(v.Dist.File)
		if err != nil {
			return nil, fmt.Errorf("component %s: dist: %w", id, err)
		}
		c.Dist = dist.Data
	}
	return c, nil
}

func checkLocalName(name string) error {
	if name == "" || !filepath.IsLocal(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}
