// Package docs extracts documentation entries (doclets) from component
// implementation files.
package docs

import "github.com/odvcencio/bit/pkg/object"

// Extractor produces the doclets of a source file. Unsupported languages
// yield no doclets and no error.
type Extractor interface {
	Extract(filename string, source []byte) ([]object.Doclet, error)
}

// Nop is an Extractor that never finds anything.
type Nop struct{}

func (Nop) Extract(string, []byte) ([]object.Doclet, error) { return nil, nil }

// Default returns the tree-sitter extractor.
func Default() Extractor { return TreeSitter{} }
