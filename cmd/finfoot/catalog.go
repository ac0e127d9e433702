package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/finfoot/internal/config"
	"github.com/san-kum/finfoot/internal/integrators"
	"github.com/san-kum/finfoot/internal/physics"
)

func listProblems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSPAN\tSTATE\tPARAMS\tREF\tSUMMARY")
	for _, name := range physics.Names() {
		m, err := physics.Lookup(name)
		if err != nil {
			return err
		}
		t0, tEnd := m.Span()
		ref := ""
		if r, ok := m.(physics.Referenced); ok {
			if _, ok := r.Reference(); ok {
				ref = "yes"
			}
		}
		fmt.Fprintf(w, "%s\t%g..%g s\t%s\t%s\t%s\t%s\n",
			name, t0.Value(), tEnd.Value(),
			stateSummary(m),
			strings.Join(physics.ParamNames(m), ","),
			ref,
			physics.Summary(name),
		)
	}
	return w.Flush()
}

// stateSummary lists components with units, folding vector fields.
func stateSummary(m physics.Model) string {
	var parts []string
	seen := map[string]bool{}
	for _, c := range m.Layout().Components() {
		name := c.Name
		if i := strings.IndexByte(name, '['); i > 0 {
			name = name[:i] + "[]"
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		parts = append(parts, fmt.Sprintf("%s[%s]", name, c.Unit().Symbol))
	}
	if len(parts) > 4 {
		parts = append(parts[:4], "...")
	}
	return strings.Join(parts, " ")
}

func listMethods(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tORDER\tSTAGES\tFSAL\tDEFAULT")
	for _, name := range integrators.Methods() {
		tab, err := integrators.Lookup(name)
		if err != nil {
			return err
		}
		def := ""
		if name == integrators.DefaultMethod {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%d(%d)\t%d\t%t\t%s\n",
			name, tab.Order, tab.EmbeddedOrder, tab.Stages(), tab.FSAL, def)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSUMMARY")
	for _, name := range config.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Summary)
	}
	return w.Flush()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
