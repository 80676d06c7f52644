// Package flatten turns resolved dependency trees into ordered, duplicate
// free component lists.
package flatten

import (
	"sort"

	"github.com/odvcencio/bit/pkg/bitid"
	"github.com/odvcencio/bit/pkg/component"
)

// Flatten returns every component in forest, roots included, in depth-first
// pre-order with the roots visited in input order. Components are
// deduplicated by full identity (scope, box, name and version); the first
// occurrence wins. The result is deterministic for a given input.
func Flatten(forest []component.ComponentDependencies) []*component.Component {
	var out []*component.Component
	seen := make(map[bitid.BitID]bool)

	// Explicit stack in reverse so children pop in declaration order.
	stack := make([]*component.ComponentDependencies, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, &forest[i])
	}
	for len(stack) > 0 {
		n := len(stack) - 1
		node := stack[n]
		stack = stack[:n]
		if node.Component == nil {
			continue
		}
		id := node.Component.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, node.Component)
		for i := len(node.Dependencies) - 1; i >= 0; i-- {
			stack = append(stack, &node.Dependencies[i])
		}
	}
	return out
}

// Transitive returns the dependency closure of cd without cd itself.
func Transitive(cd component.ComponentDependencies) []*component.Component {
	return Flatten(cd.Dependencies)
}

// IDs returns the identities of components, in order.
func IDs(components []*component.Component) bitid.BitIDs {
	out := make(bitid.BitIDs, 0, len(components))
	for _, c := range components {
		out = out.Add(c.ID())
	}
	return out
}

// Conflict is a component present in more than one version.
type Conflict struct {
	// ID is scope/box/name.
	ID       string
	Versions []int
}

// Conflicts reports components that appear in more than one version. Both
// versions stay in the flattened list since each lives in its own
// directory; callers decide whether to warn. Sorted by ID.
func Conflicts(components []*component.Component) []Conflict {
	versions := make(map[string][]int)
	for _, c := range components {
		key := c.ID().WithoutVersion()
		versions[key] = appendUnique(versions[key], c.Version)
	}
	var out []Conflict
	for id, vs := range versions {
		if len(vs) < 2 {
			continue
		}
		sort.Ints(vs)
		out = append(out, Conflict{ID: id, Versions: vs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func appendUnique(vs []int, v int) []int {
	for _, existing := range vs {
		if existing == v {
			return vs
		}
	}
	return append(vs, v)
}
