package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/drawer"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/measure"
)

func drawCmd(a *app) *cobra.Command {
	var (
		output string
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "draw FILE",
		Short: "Render a pipeline document as a Graphviz graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msr := measure.NewDefaultMeasure()

			doc, err := a.load(args[0], msr)
			if err != nil {
				return err
			}

			var d drawer.Drawer = drawer.NewDOTDrawer(a.registry, drawer.WithTitle(documentTitle(doc)))

			err = d.AddTree(doc.tree.Nodes())
			if err != nil {
				return err
			}

			if stats {
				err = d.AddMeasure(msr)
				if err != nil {
					return err
				}
			}

			if output == "" {
				return d.Draw(cmd.OutOrStdout())
			}

			err = d.DrawFile(output)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "DOT file to write instead of standard output")
	cmd.Flags().BoolVar(&stats, "stats", false, "Annotate steps with their average decode time")

	return cmd
}
