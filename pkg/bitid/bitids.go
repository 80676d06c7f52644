package bitid

import (
	"fmt"
	"sort"
)

// BitIDs is an ordered collection of BitID with no two entries sharing the
// full {scope, box, name, version} tuple.
type BitIDs []BitID

// NewBitIDs builds a BitIDs from ids, dropping later duplicates.
func NewBitIDs(ids ...BitID) BitIDs {
	var out BitIDs
	for _, id := range ids {
		out = out.Add(id)
	}
	return out
}

// Add returns ids with id appended unless an identical id is present.
func (ids BitIDs) Add(id BitID) BitIDs {
	if ids.Has(id) {
		return ids
	}
	out := make(BitIDs, len(ids), len(ids)+1)
	copy(out, ids)
	return append(out, id)
}

// Has reports whether ids contains an id equal to id in all four fields.
func (ids BitIDs) Has(id BitID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// FindWithoutVersion returns the first id sharing scope/box/name with id.
func (ids BitIDs) FindWithoutVersion(id BitID) (BitID, bool) {
	key := id.WithoutVersion()
	for _, existing := range ids {
		if existing.WithoutVersion() == key {
			return existing, true
		}
	}
	return BitID{}, false
}

// Strings serializes every id with String, preserving order.
func (ids BitIDs) Strings() []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Equal reports whether ids and other hold the same ids in the same order.
func (ids BitIDs) Equal(other BitIDs) bool {
	if len(ids) != len(other) {
		return false
	}
	for i := range ids {
		if ids[i] != other[i] {
			return false
		}
	}
	return true
}

// Deserialize parses the string list produced by Strings. Ids without a
// scope segment are left scope-less.
func Deserialize(raw []string) (BitIDs, error) {
	var out BitIDs
	for _, s := range raw {
		id, err := Parse(s, "")
		if err != nil {
			return nil, err
		}
		out = out.Add(id)
	}
	return out, nil
}

// FromMap converts the bit.json dependency map, {"[scope/]box/name": "1"},
// into BitIDs. Keys are visited in sorted order so the result is stable.
func FromMap(m map[string]string, defaultScope string) (BitIDs, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out BitIDs
	for _, k := range keys {
		id, err := Parse(k, defaultScope)
		if err != nil {
			return nil, err
		}
		if id.HasVersion() {
			return nil, fmt.Errorf("dependency key %q must not carry a version", k)
		}
		v, err := ParseVersion(m[k])
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", k, err)
		}
		out = out.Add(id.ChangeVersion(v))
	}
	return out, nil
}

// ToMap is the inverse of FromMap.
func (ids BitIDs) ToMap() map[string]string {
	m := make(map[string]string, len(ids))
	for _, id := range ids {
		m[id.WithoutVersion()] = id.VersionString()
	}
	return m
}
