package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/odvcencio/bit/pkg/component"
	"github.com/odvcencio/bit/pkg/consumer"
	"github.com/odvcencio/bit/pkg/object"
	"github.com/spf13/cobra"
)

type showJSON struct {
	ID                  string            `json:"id"`
	Impl                string            `json:"impl"`
	Specs               string            `json:"specs,omitempty"`
	Compiler            string            `json:"compiler,omitempty"`
	Tester              string            `json:"tester,omitempty"`
	Dependencies        []string          `json:"dependencies"`
	PackageDependencies map[string]string `json:"packageDependencies,omitempty"`
	Docs                []object.Doclet   `json:"docs,omitempty"`
}

func newShowCmd() *cobra.Command {
	var inline bool
	var asJSON bool
	var versions bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored or inline component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inline && versions {
				return fmt.Errorf("%w: --inline and --versions cannot be combined", consumer.ErrValidation)
			}
			c, err := openConsumer(cmd)
			if err != nil {
				return err
			}

			var comps []*component.Component
			if inline {
				id, err := consumer.ParseInlineID(args[0])
				if err != nil {
					return err
				}
				comp, err := c.LoadComponent(id)
				if err != nil {
					return err
				}
				comps = []*component.Component{comp}
			} else {
				comps, err = c.Show(cmd.Context(), args[0], versions)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				views := make([]showJSON, 0, len(comps))
				for _, comp := range comps {
					views = append(views, showView(comp))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if versions {
					return enc.Encode(views)
				}
				return enc.Encode(views[0])
			}
			for i, comp := range comps {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printComponent(out, comp)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&inline, "inline", "i", false, "show an inline component")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print JSON")
	cmd.Flags().BoolVarP(&versions, "versions", "v", false, "show every stored version")
	return cmd
}

func showView(comp *component.Component) showJSON {
	v := showJSON{
		ID:                  comp.ID().String(),
		Impl:                comp.ImplFile,
		Dependencies:        comp.Dependencies.Strings(),
		PackageDependencies: comp.PackageDependencies,
		Docs:                comp.Docs,
	}
	if comp.Specs != nil {
		v.Specs = comp.SpecsFile
	}
	if comp.CompilerID != nil {
		v.Compiler = comp.CompilerID.String()
	}
	if comp.TesterID != nil {
		v.Tester = comp.TesterID.String()
	}
	if v.Dependencies == nil {
		v.Dependencies = []string{}
	}
	return v
}

func printComponent(w io.Writer, comp *component.Component) {
	v := showView(comp)
	fmt.Fprintf(w, "component %s\n", v.ID)
	fmt.Fprintf(w, "Impl:     %s\n", v.Impl)
	if v.Specs != "" {
		fmt.Fprintf(w, "Specs:    %s\n", v.Specs)
	}
	if v.Compiler != "" {
		fmt.Fprintf(w, "Compiler: %s\n", v.Compiler)
	}
	if v.Tester != "" {
		fmt.Fprintf(w, "Tester:   %s\n", v.Tester)
	}
	if len(v.Dependencies) > 0 {
		fmt.Fprintf(w, "Dependencies: %s\n", strings.Join(v.Dependencies, ", "))
	}
	if len(v.Docs) > 0 {
		fmt.Fprintln(w, "Docs:")
		for _, d := range v.Docs {
			line := d.Name
			if d.Signature != "" {
				line = d.Signature
			}
			fmt.Fprintf(w, "  %s\n", line)
			if d.Description != "" {
				fmt.Fprintf(w, "      %s\n", d.Description)
			}
		}
	}
}
