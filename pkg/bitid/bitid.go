package bitid

import (
	"fmt"
	"strconv"
	"strings"
)

// LatestVersion is the zero version, meaning "latest" or "not yet versioned".
const LatestVersion = 0

const latestToken = "latest"

// BitID identifies a component: {scope, box, name, version}.
// A BitID is a value type; methods never mutate the receiver.
type BitID struct {
	Scope   string
	Box     string
	Name    string
	Version int
}

// Parse parses the string form of a component id:
//
//	scope/box/name@version
//	box/name@version
//	box/name
//
// defaultScope fills in the scope when the string omits it. A missing
// version, or "@latest", parses to LatestVersion.
func Parse(raw, defaultScope string) (BitID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return BitID{}, fmt.Errorf("parse bit id: empty id")
	}

	idPart, versionPart, hasVersion := strings.Cut(raw, "@")
	version := LatestVersion
	if hasVersion {
		v, err := ParseVersion(versionPart)
		if err != nil {
			return BitID{}, fmt.Errorf("parse bit id %q: %w", raw, err)
		}
		version = v
	}

	parts := strings.Split(idPart, "/")
	for _, p := range parts {
		if err := ValidateSegment(p); err != nil {
			return BitID{}, fmt.Errorf("parse bit id %q: %w", raw, err)
		}
	}

	var id BitID
	switch len(parts) {
	case 2:
		id = BitID{Scope: defaultScope, Box: parts[0], Name: parts[1]}
	case 3:
		id = BitID{Scope: parts[0], Box: parts[1], Name: parts[2]}
	default:
		return BitID{}, fmt.Errorf("parse bit id %q: want [scope/]box/name[@version]", raw)
	}
	if len(parts) == 2 && defaultScope != "" {
		if err := ValidateSegment(defaultScope); err != nil {
			return BitID{}, fmt.Errorf("parse bit id %q: scope: %w", raw, err)
		}
	}
	id.Version = version
	return id, nil
}

// ValidateSegment checks a single scope, box or name segment. Segments
// become directory names on disk, so "." and ".." and anything holding a
// path separator are rejected.
func ValidateSegment(seg string) error {
	switch {
	case strings.TrimSpace(seg) == "":
		return fmt.Errorf("empty path segment")
	case seg == "." || seg == "..":
		return fmt.Errorf("invalid path segment %q", seg)
	case strings.ContainsAny(seg, `/\`):
		return fmt.Errorf("path segment %q contains a separator", seg)
	}
	return nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(raw, defaultScope string) BitID {
	id, err := Parse(raw, defaultScope)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseVersion parses a version token. "latest" and "" map to LatestVersion.
func ParseVersion(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == latestToken {
		return LatestVersion, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid version %q: must be positive", raw)
	}
	return v, nil
}

// String returns the canonical form, scope/box/name@version. The scope
// segment is omitted when unset and the version when latest.
func (id BitID) String() string {
	s := id.WithoutVersion()
	if id.HasVersion() {
		s += "@" + strconv.Itoa(id.Version)
	}
	return s
}

// WithoutVersion returns scope/box/name, the logical component key.
func (id BitID) WithoutVersion() string {
	if id.Scope == "" {
		return id.Box + "/" + id.Name
	}
	return id.Scope + "/" + id.Box + "/" + id.Name
}

// HasVersion reports whether the id pins a concrete version.
func (id BitID) HasVersion() bool {
	return id.Version != LatestVersion
}

// VersionString renders the version token used in bit.json maps.
func (id BitID) VersionString() string {
	if !id.HasVersion() {
		return latestToken
	}
	return strconv.Itoa(id.Version)
}

// ChangeScope returns a copy of id living in scope.
func (id BitID) ChangeScope(scope string) BitID {
	id.Scope = scope
	return id
}

// ChangeVersion returns a copy of id pinned to version.
func (id BitID) ChangeVersion(version int) BitID {
	id.Version = version
	return id
}

// IsZero reports whether id is the empty value.
func (id BitID) IsZero() bool {
	return id == BitID{}
}
