package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/askiada/go-pipeline-doc/internal/library"
)

func listCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the pipelines of the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir != "" {
				a.cfg.Library.Dir = dir
			}

			lib, err := a.library()
			if err != nil {
				return err
			}

			summaries, err := lib.List()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTEPS\tCREATED\tDESCRIPTION")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.ID, s.Name, s.StepsCount, s.CreatedAt, s.Description)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Library directory (default from config)")

	return cmd
}

func watchCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Validate library pipelines whenever they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir != "" {
				a.cfg.Library.Dir = dir
			}

			lib, err := a.library()
			if err != nil {
				return err
			}

			w, err := library.NewWatcher(lib, a.cfg.Library.Debounce)
			if err != nil {
				return err
			}
			defer w.Close()

			err = w.Start(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for ev := range w.Events() {
				if ev.Op == library.OpRemove {
					fmt.Fprintf(out, "%s: removed\n", ev.ID)
					continue
				}
				a.report(out, ev)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Library directory (default from config)")

	return cmd
}

func (a *app) report(out io.Writer, ev library.Event) {
	doc, err := a.load(ev.Path, nil)
	if err != nil {
		a.logger.Error("unable to load pipeline", slog.String("id", ev.ID), slog.String("error", err.Error()))
		fmt.Fprintf(out, "%s: error: %v\n", ev.ID, err)
		return
	}

	if len(doc.diagnostics) == 0 {
		fmt.Fprintf(out, "%s: ok (%d steps)\n", ev.ID, doc.tree.Len())
		return
	}
	for _, diag := range doc.diagnostics {
		fmt.Fprintf(out, "%s: %s\n", ev.ID, diag)
	}
}
