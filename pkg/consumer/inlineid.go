package consumer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/odvcencio/bit/pkg/bitid"
)

// InlineID addresses an inline component by box and name.
type InlineID struct {
	Box  string
	Name string
}

// ParseInlineID parses "box/name".
func ParseInlineID(raw string) (InlineID, error) {
	box, name, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return InlineID{}, fmt.Errorf("%w: inline id %q must be box/name", ErrValidation, raw)
	}
	for _, seg := range []string{box, name} {
		if err := bitid.ValidateSegment(seg); err != nil {
			return InlineID{}, fmt.Errorf("%w: inline id %q: %v", ErrValidation, raw, err)
		}
	}
	return InlineID{Box: box, Name: name}, nil
}

func (id InlineID) String() string { return id.Box + "/" + id.Name }

// dir returns the component's directory under the inline root.
func (id InlineID) dir(inlineRoot string) string {
	return filepath.Join(inlineRoot, id.Box, id.Name)
}
