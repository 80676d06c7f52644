package docs

import (
	"fmt"
	"strings"

	gotreesitter "github.com/odvcencio/gotreesitter"
	"github.com/odvcencio/gotreesitter/grammars"
	classify "github.com/odvcencio/gts-suite/pkg/lang/treesitter"

	"github.com/odvcencio/bit/pkg/object"
)

var (
	declarationTypes    = classify.DeclarationNodeTypes
	commentTypes        = classify.CommentNodeTypes
	nameIdentifierTypes = classify.NameIdentifierTypes
)

// TreeSitter extracts one doclet per top-level declaration, taking the
// description from the comment block directly above it.
type TreeSitter struct{}

func (TreeSitter) Extract(filename string, source []byte) ([]object.Doclet, error) {
	if len(source) == 0 || grammars.DetectLanguage(filename) == nil {
		return nil, nil
	}

	bt, err := grammars.ParseFile(filename, source)
	if err != nil {
		return nil, fmt.Errorf("extract docs %s: %w", filename, err)
	}
	defer bt.Release()

	root := bt.RootNode()
	var (
		out []object.Doclet
		// comments accumulates the comment block ending right above the
		// next node; anything in between resets it.
		comments []string
		lastRow  = -1
	)
	for i := 0; i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		nodeType := bt.NodeType(child)
		startRow := int(child.StartPoint().Row)

		if isComment(nodeType) {
			if lastRow >= 0 && startRow > lastRow+1 {
				comments = nil
			}
			comments = append(comments, bt.NodeText(child))
			lastRow = int(child.EndPoint().Row)
			continue
		}
		if len(comments) > 0 && startRow > lastRow+1 {
			comments = nil
		}

		if decl := declarationOf(bt, child); decl != nil {
			name := extractName(bt, decl)
			if name != "" {
				out = append(out, object.Doclet{
					Name:        name,
					Kind:        docKind(bt.NodeType(decl)),
					Signature:   declarationSignature(bt.NodeText(decl)),
					Description: cleanComment(comments),
					Line:        startRow + 1,
				})
			}
		}
		comments = nil
		lastRow = int(child.EndPoint().Row)
	}
	return out, nil
}

func isComment(nodeType string) bool {
	return commentTypes[nodeType] || strings.Contains(nodeType, "comment")
}

// declarationOf returns node itself when it is a declaration, the wrapped
// declaration of an export statement, or nil.
func declarationOf(bt *gotreesitter.BoundTree, node *gotreesitter.Node) *gotreesitter.Node {
	nodeType := bt.NodeType(node)
	if nodeType == "export_statement" || nodeType == "decorated_definition" {
		for i := 0; i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child != nil && isDeclaration(bt, child) {
				return child
			}
		}
		return nil
	}
	if isDeclaration(bt, node) {
		return node
	}
	return nil
}

func isDeclaration(bt *gotreesitter.BoundTree, node *gotreesitter.Node) bool {
	nodeType := bt.NodeType(node)
	if declarationTypes[nodeType] {
		return true
	}
	if !node.IsNamed() {
		return false
	}
	return strings.Contains(nodeType, "declaration") || strings.Contains(nodeType, "definition")
}

func extractName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	switch bt.NodeType(node) {
	case "method_declaration":
		for i := 0; i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if t := bt.NodeType(child); t == "field_identifier" || nameIdentifierTypes[t] {
				return bt.NodeText(child)
			}
		}
	case "type_declaration", "var_declaration", "const_declaration":
		for i := 0; i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			switch bt.NodeType(child) {
			case "type_spec", "var_spec", "const_spec":
				return firstIdentifier(bt, child)
			}
		}
	}
	return firstIdentifier(bt, node)
}

func firstIdentifier(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if nameIdentifierTypes[bt.NodeType(child)] {
			return bt.NodeText(child)
		}
		if nested := firstIdentifier(bt, child); nested != "" {
			return nested
		}
	}
	return ""
}

// docKind maps a grammar node type to a language-neutral doclet kind.
func docKind(nodeType string) string {
	switch {
	case strings.Contains(nodeType, "method"):
		return "method"
	case strings.Contains(nodeType, "function"):
		return "function"
	case strings.Contains(nodeType, "class"):
		return "class"
	case strings.Contains(nodeType, "interface"):
		return "interface"
	case strings.Contains(nodeType, "type"), strings.Contains(nodeType, "struct"), strings.Contains(nodeType, "enum"):
		return "type"
	case strings.Contains(nodeType, "const"):
		return "constant"
	default:
		return "variable"
	}
}

func declarationSignature(body string) string {
	text := strings.TrimSpace(body)
	if idx := strings.Index(text, "{"); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	return strings.Join(strings.Fields(text), " ")
}

// cleanComment strips comment markers from a block of comments and joins
// the remaining lines.
func cleanComment(comments []string) string {
	var lines []string
	for _, c := range comments {
		c = strings.TrimSpace(c)
		c = strings.TrimPrefix(c, "/**")
		c = strings.TrimPrefix(c, "/*")
		c = strings.TrimSuffix(c, "*/")
		for _, line := range strings.Split(c, "\n") {
			line = strings.TrimSpace(line)
			for _, prefix := range []string{"//", "#", "*"} {
				line = strings.TrimPrefix(line, prefix)
			}
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, " ")
}
