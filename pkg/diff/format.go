package diff

import (
	"fmt"
	"strings"
)

// Format renders d as text: a line diff per changed file followed by the
// dependency and environment changes.
//
//	--- a/box/name/impl.js
//	+++ b/box/name/impl.js
//	-old line
//	+new line
//	dependencies:
//	  + scope/box/dep@2
func Format(d *ComponentDiff) string {
	if d.Empty() {
		return ""
	}
	prefix := d.Box + "/" + d.Name + "/"

	var b strings.Builder
	for _, f := range d.Files {
		before, after := "a/"+prefix+f.Name, "b/"+prefix+f.Name
		switch f.Type {
		case Added:
			before = "/dev/null"
		case Removed:
			after = "/dev/null"
		}
		fmt.Fprintf(&b, "--- %s\n+++ %s\n", before, after)
		for _, l := range f.Lines {
			switch l.Op {
			case Delete:
				fmt.Fprintf(&b, "-%s\n", l.Text)
			case Insert:
				fmt.Fprintf(&b, "+%s\n", l.Text)
			default:
				fmt.Fprintf(&b, " %s\n", l.Text)
			}
		}
	}

	if len(d.AddedDependencies)+len(d.RemovedDependencies) > 0 {
		b.WriteString("dependencies:\n")
		for _, id := range d.AddedDependencies {
			fmt.Fprintf(&b, "  + %s\n", id)
		}
		for _, id := range d.RemovedDependencies {
			fmt.Fprintf(&b, "  - %s\n", id)
		}
	}
	if len(d.PackageDependencies) > 0 {
		fmt.Fprintf(&b, "packageDependencies: %s\n", strings.Join(d.PackageDependencies, ", "))
	}
	for _, e := range d.Env {
		fmt.Fprintf(&b, "%s: %s -> %s\n", e.Field, orNone(e.Before), orNone(e.After))
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
