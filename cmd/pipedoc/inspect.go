package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/measure"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
)

func inspectCmd(a *app) *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the step tree of a pipeline document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msr := measure.NewDefaultMeasure()

			doc, err := a.load(args[0], msr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d steps)\n", documentTitle(doc), doc.tree.Len())
			writeOutline(out, doc.tree.Nodes(), 1)

			if len(doc.diagnostics) > 0 {
				fmt.Fprintf(out, "\n%d diagnostics:\n", len(doc.diagnostics))
				for _, diag := range doc.diagnostics {
					fmt.Fprintf(out, "  %s\n", diag)
				}
			}

			if stats {
				fmt.Fprintln(out)
				return writeStats(out, msr)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "Print decode statistics per step shape")

	return cmd
}

func writeOutline(w io.Writer, nodes []*model.Node, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", depth), describeNode(n))
		writeOutline(w, n.Children, depth+1)
	}
}

func describeNode(n *model.Node) string {
	var sb strings.Builder

	sb.WriteString(n.Label)
	if n.ComponentID != n.Label {
		fmt.Fprintf(&sb, " [%s]", n.ComponentID)
	}
	fmt.Fprintf(&sb, " <%s>", n.Shape)

	if n.Parameters != nil && n.Parameters.Len() > 0 {
		sb.WriteString(" ")
		sb.WriteString(document.Summary(n.Parameters))
	}

	if g := n.Generator; g != nil {
		switch g.Variant {
		case model.VariantRange:
			fmt.Fprintf(&sb, " %s=%s..%s", g.Param, g.Start, g.End)
			if g.HasStep {
				fmt.Fprintf(&sb, "/%s", g.Step)
			}
		default:
			if g.Size != nil {
				fmt.Fprintf(&sb, " size=%s", compact(g.Size))
			}
			if g.Count != nil {
				fmt.Fprintf(&sb, " count=%s", compact(g.Count))
			}
		}
	}

	return sb.String()
}

func compact(v document.Value) string {
	out, err := document.EncodeJSON(v, "")
	if err != nil {
		return document.Summary(v)
	}

	return string(out)
}

func writeStats(w io.Writer, msr measure.Measure) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tCOUNT\tAVERAGE")
	for _, name := range measure.Names(msr) {
		mt := msr.GetMetric(name)
		fmt.Fprintf(tw, "%s\t%d\t%s\n", name, mt.Count(), mt.AVGDuration())
	}

	return tw.Flush()
}
