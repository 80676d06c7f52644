package object

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/odvcencio/bit/pkg/bitid"
)

// Component is the scope metadata record of a component: which Version
// record holds each released version number. Like every record it is
// immutable; releasing a version produces a new Component record.
type Component struct {
	Scope    string
	Box      string
	Name     string
	Versions map[int]Ref
}

func (c *Component) Kind() Kind { return KindComponent }

// ID returns the canonical JSON form of the component record.
func (c *Component) ID() ([]byte, error) { return c.Content() }

func (c *Component) Content() ([]byte, error) {
	out := componentJSON{
		Scope:    c.Scope,
		Box:      c.Box,
		Name:     c.Name,
		Versions: make(map[string]string, len(c.Versions)),
	}
	for v, ref := range c.Versions {
		out.Versions[fmt.Sprintf("%d", v)] = string(ref)
	}
	return encodeRecord(KindComponent, out)
}

// Refs returns the version refs ordered by version number.
func (c *Component) Refs() []Ref {
	versions := c.VersionNumbers()
	refs := make([]Ref, 0, len(versions))
	for _, v := range versions {
		refs = append(refs, c.Versions[v])
	}
	return refs
}

func (c *Component) isRecord() {}

// VersionNumbers returns the released version numbers in ascending order.
func (c *Component) VersionNumbers() []int {
	out := make([]int, 0, len(c.Versions))
	for v := range c.Versions {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Latest returns the highest released version, or bitid.LatestVersion when
// none has been released.
func (c *Component) Latest() int {
	latest := bitid.LatestVersion
	for v := range c.Versions {
		if v > latest {
			latest = v
		}
	}
	return latest
}

// VersionRef resolves version to a Version ref. bitid.LatestVersion selects
// the highest released version.
func (c *Component) VersionRef(version int) (Ref, int, bool) {
	if version == bitid.LatestVersion {
		version = c.Latest()
	}
	ref, ok := c.Versions[version]
	return ref, version, ok
}

// BitID returns the component's identity at version.
func (c *Component) BitID(version int) bitid.BitID {
	return bitid.BitID{Scope: c.Scope, Box: c.Box, Name: c.Name, Version: version}
}

// WithVersion returns a copy of c with version mapped to ref.
func (c *Component) WithVersion(version int, ref Ref) *Component {
	out := c.clone()
	out.Versions[version] = ref
	return out
}

// ChangeScope returns a copy of c owned by scope.
func (c *Component) ChangeScope(scope string) *Component {
	out := c.clone()
	out.Scope = scope
	return out
}

func (c *Component) clone() *Component {
	out := &Component{
		Scope:    c.Scope,
		Box:      c.Box,
		Name:     c.Name,
		Versions: make(map[int]Ref, len(c.Versions)+1),
	}
	for v, ref := range c.Versions {
		out.Versions[v] = ref
	}
	return out
}

type componentJSON struct {
	Scope    string            `json:"scope"`
	Box      string            `json:"box"`
	Name     string            `json:"name"`
	Versions map[string]string `json:"versions"`
}

// ParseComponent decodes the content of a Component record.
func ParseComponent(content []byte) (*Component, error) {
	var raw componentJSON
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, &DecodeError{Kind: KindComponent, Err: err}
	}
	if raw.Box == "" || raw.Name == "" {
		return nil, &DecodeError{Kind: KindComponent, Err: fmt.Errorf("missing box or name")}
	}
	for _, seg := range []string{raw.Scope, raw.Box, raw.Name} {
		if seg == "" {
			continue
		}
		if err := bitid.ValidateSegment(seg); err != nil {
			return nil, &DecodeError{Kind: KindComponent, Err: err}
		}
	}
	c := &Component{
		Scope:    raw.Scope,
		Box:      raw.Box,
		Name:     raw.Name,
		Versions: make(map[int]Ref, len(raw.Versions)),
	}
	for k, v := range raw.Versions {
		version, err := bitid.ParseVersion(k)
		if err != nil || version == bitid.LatestVersion {
			return nil, &DecodeError{Kind: KindComponent, Err: fmt.Errorf("invalid version key %q", k)}
		}
		ref, err := ParseRef(v)
		if err != nil {
			return nil, &DecodeError{Kind: KindComponent, Err: err}
		}
		c.Versions[version] = ref
	}
	return c, nil
}
