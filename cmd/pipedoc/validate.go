package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-pipeline-doc/internal/batch"
)

func validateCmd(a *app) *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Report unresolved, ambiguous and misplaced steps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate(cmd, args, lenient)
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "Exit successfully even when diagnostics are found")

	return cmd
}

func (a *app) validate(cmd *cobra.Command, inputs []string, lenient bool) error {
	docs, err := batch.Run(cmd.Context(), inputs, func(_ context.Context, path string) (*loaded, error) {
		return a.load(path, nil)
	}, batch.WithConcurrency(a.cfg.Batch.Concurrency))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	total := 0
	for _, doc := range docs {
		if len(doc.diagnostics) == 0 {
			fmt.Fprintf(out, "%s: ok (%d steps)\n", doc.path, doc.tree.Len())
			continue
		}

		total += len(doc.diagnostics)
		for _, diag := range doc.diagnostics {
			fmt.Fprintf(out, "%s: %s\n", doc.path, diag)
			if len(diag.Candidates) > 0 {
				fmt.Fprintf(out, "\tcandidates: %v\n", diag.Candidates)
			}
		}
	}

	if total > 0 && !lenient {
		return errors.Wrapf(ErrDiagnostics, "%d found", total)
	}

	return nil
}
