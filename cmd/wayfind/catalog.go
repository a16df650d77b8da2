package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wayfind-ai/wayfind/internal/capability"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the capabilities available to the planner",
	Long: `Catalog prints the capability catalog the planner would search over,
grouped by category. Use --catalog to inspect a custom YAML catalog instead
of the built-in one.`,
	RunE: runCatalog,
}

var catalogFile string

func init() {
	catalogCmd.Flags().StringVar(&catalogFile, "catalog", "", "Capability catalog YAML file (default: built-in catalog)")
}

// runCatalog implements the catalog command.
func runCatalog(cmd *cobra.Command, args []string) error {
	var registry *capability.Registry
	var err error

	if catalogFile == "" {
		registry, err = capability.NewRegistry(capability.DefaultCatalog())
	} else {
		registry, err = capability.LoadCatalog(catalogFile)
	}
	if err != nil {
		return wrapExit(ExitConfigError, "failed to load catalog", err)
	}

	var b strings.Builder
	for _, tag := range registry.Categories() {
		b.WriteString(titleStyle.Render(tag.String()) + "\n")
		for _, c := range registry.ByCategory(tag) {
			line := fmt.Sprintf("  %s", stepStyle.Render(c.Name))
			var notes []string
			if c.Repeatable {
				notes = append(notes, "repeatable")
			}
			if tag.IsTerminal() {
				notes = append(notes, "terminal")
			}
			if len(notes) > 0 {
				line += " " + mutedStyle.Render("("+strings.Join(notes, ", ")+")")
			}
			b.WriteString(line + "\n")
			if c.Effect != "" {
				b.WriteString(mutedStyle.Render("      "+c.Effect) + "\n")
			}
		}
	}

	fmt.Print(b.String())
	return nil
}
