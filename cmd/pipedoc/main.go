// Package main provides the pipedoc binary entry point.
// Pipedoc converts, validates and draws nirs4all pipeline documents against a component
// catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askiada/go-pipeline-doc/internal/config"
)

const (
	Version = "0.1.0"
	appName = "pipedoc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// globalFlags are the command line overrides of the configuration.
type globalFlags struct {
	configPath string
	logLevel   string
	schemaPath string
	dialect    string
	markers    []string
}

func newRootCmd(loaderOpts ...config.LoaderOption) *cobra.Command {
	flags := &globalFlags{}
	a := &app{loaderOpts: loaderOpts}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Pipeline document converter",
		Long: `Pipedoc reads nirs4all pipeline documents, resolves their steps against a
component catalog and writes them back in canonical form.

Configuration is read from ~/.config/pipedoc/config.yaml, then from the first
pipedoc.yaml found in the current directory or its parents, then from --config.
Flags override every file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.schemaPath, "schema", "", "Component catalog file (JSON or YAML)")
	pf.StringVar(&flags.dialect, "dialect", "", "Keywords of input documents (default, nirs4all)")
	pf.StringSliceVar(&flags.markers, "marker", nil, "Bare keyword decoded as a marker step, may be repeated")

	cmd.AddCommand(
		convertCmd(a),
		validateCmd(a),
		inspectCmd(a),
		drawCmd(a),
		listCmd(a),
		watchCmd(a),
		componentsCmd(a),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}
