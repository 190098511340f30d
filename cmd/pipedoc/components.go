package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func componentsCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "components",
		Short: "List the components of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tKIND\tCATEGORY\tREFERENCE")

			for _, def := range a.registry.Components() {
				if category != "" && def.CategoryID != category {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", def.ID, def.Label, def.Kind(), def.CategoryID, def.Reference)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list components of this category")

	return cmd
}
