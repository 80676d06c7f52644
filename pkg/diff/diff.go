// Package diff compares two revisions of a component: the files it carries,
// its dependencies and its environment.
package diff

import (
	"bytes"
	"path"
	"sort"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
)

// ChangeType classifies a change between two revisions.
type ChangeType int

const (
	Added ChangeType = iota
	Removed
	Modified
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "modified"
	}
}

// FileChange is a changed file. Before is nil for Added, After for Removed.
type FileChange struct {
	Type   ChangeType
	Name   string
	Before []byte
	After  []byte
	Lines  []Line
}

// EnvChange is a changed compiler or tester. Empty sides are unset.
type EnvChange struct {
	Field  string
	Before string
	After  string
}

// ComponentDiff is everything that differs between two revisions of a
// component.
type ComponentDiff struct {
	Box  string
	Name string

	Files               []FileChange
	AddedDependencies   []string
	RemovedDependencies []string
	PackageDependencies []string
	Env                 []EnvChange
}

// Empty reports whether both revisions are equivalent.
func (d *ComponentDiff) Empty() bool {
	return len(d.Files) == 0 &&
		len(d.AddedDependencies) == 0 &&
		len(d.RemovedDependencies) == 0 &&
		len(d.PackageDependencies) == 0 &&
		len(d.Env) == 0
}

// Components compares before, typically the latest committed version, with
// after, typically the inline copy. A nil before treats everything in after
// as added. A dependency of after without a version matches any version of
// the same component in before.
func Components(before, after *component.Component) *ComponentDiff {
	if before == nil {
		before = &component.Component{}
	}
	d := &ComponentDiff{Box: after.Box, Name: after.Name}

	d.Files = files(filesOf(before), filesOf(after))
	d.AddedDependencies, d.RemovedDependencies = dependencies(before.Dependencies, after.Dependencies)
	d.PackageDependencies = packageDependencies(before.PackageDependencies, after.PackageDependencies)

	if b, a := envString(before.CompilerID), envString(after.CompilerID); b != a {
		d.Env = append(d.Env, EnvChange{Field: "compiler", Before: b, After: a})
	}
	if b, a := envString(before.TesterID), envString(after.TesterID); b != a {
		d.Env = append(d.Env, EnvChange{Field: "tester", Before: b, After: a})
	}
	return d
}

type namedFile struct {
	name string
	data []byte
}

func filesOf(c *component.Component) []namedFile {
	var out []namedFile
	if c.Impl != nil {
		out = append(out, namedFile{c.ImplFile, c.Impl})
	}
	if c.Specs != nil {
		out = append(out, namedFile{c.SpecsFile, c.Specs})
	}
	if c.Dist != nil {
		out = append(out, namedFile{path.Join(component.DistDir, component.DistFile), c.Dist})
	}
	return out
}

func files(before, after []namedFile) []FileChange {
	prev := make(map[string][]byte, len(before))
	for _, f := range before {
		prev[f.name] = f.data
	}

	var out []FileChange
	seen := make(map[string]bool, len(after))
	for _, f := range after {
		seen[f.name] = true
		old, ok := prev[f.name]
		switch {
		case !ok:
			out = append(out, FileChange{Type: Added, Name: f.name, After: f.data, Lines: Lines(nil, f.data)})
		case !bytes.Equal(old, f.data):
			out = append(out, FileChange{Type: Modified, Name: f.name, Before: old, After: f.data, Lines: Lines(old, f.data)})
		}
	}
	for _, f := range before {
		if !seen[f.name] {
			out = append(out, FileChange{Type: Removed, Name: f.name, Before: f.data, Lines: Lines(f.data, nil)})
		}
	}
	return out
}

func dependencies(before, after bitid.BitIDs) (added, removed []string) {
	for _, id := range after {
		if !matchDependency(before, id) {
			added = append(added, id.String())
		}
	}
	for _, id := range before {
		if !matchDependency(after, id) {
			removed = append(removed, id.String())
		}
	}
	return added, removed
}

func matchDependency(ids bitid.BitIDs, id bitid.BitID) bool {
	for _, other := range ids {
		if other.WithoutVersion() != id.WithoutVersion() {
			continue
		}
		if !id.HasVersion() || !other.HasVersion() || other.Version == id.Version {
			return true
		}
	}
	return false
}

func packageDependencies(before, after map[string]string) []string {
	var out []string
	for name, v := range after {
		if old, ok := before[name]; !ok || old != v {
			out = append(out, name)
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func envString(id *bitid.BitID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
