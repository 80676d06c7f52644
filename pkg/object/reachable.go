package object

import (
	"fmt"
	"sort"
)

// CollectRefs walks the reference graph below r depth-first, pre-order,
// loading every child from repo, and returns the refs it visited. The root
// itself is not included. A ref reached through two paths appears twice;
// callers treat the result as a set.
//
// A referenced record missing from repo aborts the walk with a
// ConsistencyError.
func CollectRefs(repo *Repository, r Record) ([]Ref, error) {
	var out []Ref
	err := walk(repo, r, func(ref Ref, _ Record) {
		out = append(out, ref)
	})
	return out, err
}

// Collect is CollectRefs returning the decoded child records.
func Collect(repo *Repository, r Record) ([]Record, error) {
	var out []Record
	err := walk(repo, r, func(_ Ref, child Record) {
		out = append(out, child)
	})
	return out, err
}

// CollectRaw is CollectRefs returning the compressed bytes of each child,
// for replication to another store.
func CollectRaw(repo *Repository, r Record) ([][]byte, error) {
	refs, err := CollectRefs(repo, r)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(refs))
	for _, ref := range refs {
		raw, err := repo.LoadRaw(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// walk uses an explicit stack so deep graphs do not grow the goroutine
// stack. Records are content-addressed, so the graph has no cycles.
func walk(repo *Repository, root Record, visit func(Ref, Record)) error {
	stack := pushReversed(nil, root.Refs())
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		child, err := repo.LoadSync(ref)
		if err != nil {
			return fmt.Errorf("collect %s: %w", ref, err)
		}
		visit(ref, child)
		stack = pushReversed(stack, child.Refs())
	}
	return nil
}

func pushReversed(stack, refs []Ref) []Ref {
	for i := len(refs) - 1; i >= 0; i-- {
		if refs[i] == "" {
			continue
		}
		stack = append(stack, refs[i])
	}
	return stack
}

// ReachableSet returns every ref reachable from roots, roots included, each
// once. Unlike CollectRefs it never loads a record twice.
func (s *Repository) ReachableSet(roots []Ref) (map[Ref]struct{}, error) {
	out := make(map[Ref]struct{}, len(roots))
	stack := make([]Ref, 0, len(roots))
	stack = append(stack, roots...)
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ref == "" {
			continue
		}
		if _, ok := out[ref]; ok {
			continue
		}
		r, err := s.LoadSync(ref)
		if err != nil {
			return nil, fmt.Errorf("reachable set %s: %w", ref, err)
		}
		out[ref] = struct{}{}
		stack = append(stack, r.Refs()...)
	}
	return out, nil
}

// SortedRefs returns the refs of set in ascending order.
func SortedRefs(set map[Ref]struct{}) []Ref {
	out := make([]Ref, 0, len(set))
	for ref := range set {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
