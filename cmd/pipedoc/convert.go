package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-pipeline-doc/internal/batch"
	"github.com/askiada/go-pipeline-doc/internal/library"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/codec"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/measure"
)

var ErrOutputRequired = errors.New("--out-dir is required with several inputs")

type convertOptions struct {
	toDialect string
	format    string
	outDir    string
	save      string
	bare      bool
}

func convertCmd(a *app) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Rewrite pipeline documents in canonical form",
		Long: `Convert decodes each document, resolves its steps against the catalog and
encodes it again. Steps that cannot be resolved are written back unchanged.

Use "-" to read a single document from standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.toDialect, "to-dialect", "", "Keywords of output documents (default: the input dialect)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format, json or yaml (default from config)")
	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "Directory receiving the converted files")
	cmd.Flags().StringVar(&opts.save, "save", "", "Save the converted document in the library under this id")
	cmd.Flags().BoolVar(&opts.bare, "bare", false, "Drop the name and description of wrapped documents")

	return cmd
}

type converted struct {
	source string
	data   []byte
	title  string
	steps  document.Array
}

func (a *app) convert(cmd *cobra.Command, inputs []string, opts *convertOptions) error {
	if len(inputs) > 1 && opts.outDir == "" && opts.save == "" {
		return ErrOutputRequired
	}
	if len(inputs) > 1 && opts.save != "" {
		return errors.New("--save takes a single input")
	}

	outKeywords := a.keywords
	if opts.toDialect != "" {
		kw, err := codec.KeywordsFor(codec.Dialect(opts.toDialect))
		if err != nil {
			return err
		}
		outKeywords = kw
	}

	formatName := opts.format
	if formatName == "" {
		formatName = a.cfg.Output.Format
	}
	format, err := document.ParseFormat(formatName)
	if err != nil {
		return err
	}

	enc := a.encoder(outKeywords)
	msr := measure.NewDefaultMeasure()
	start := time.Now()

	results, err := batch.Run(cmd.Context(), inputs, func(_ context.Context, path string) (*converted, error) {
		doc, err := a.load(path, msr)
		if err != nil {
			return nil, err
		}
		if len(doc.diagnostics) > 0 {
			a.logger.Warn("document has diagnostics",
				slog.String("file", path),
				slog.Int("count", len(doc.diagnostics)),
			)
		}

		steps, err := enc.EncodeTree(doc.tree)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to encode %s", path)
		}

		var out document.Value = steps
		if doc.metadata != nil && !opts.bare {
			out = doc.metadata.Clone().Set(outKeywords.Steps, steps)
		}

		data, err := document.Encode(out, format, a.cfg.IndentString())
		if err != nil {
			return nil, errors.Wrapf(err, "unable to write %s", path)
		}

		return &converted{source: path, data: data, title: documentTitle(doc), steps: steps}, nil
	}, batch.WithConcurrency(a.cfg.Batch.Concurrency), batch.WithMetric(msr.AddMetric("file")))
	if err != nil {
		return err
	}

	a.logger.Info("conversion done",
		slog.Int("files", len(results)),
		slog.Duration("elapsed", time.Since(start)),
	)

	if opts.save != "" {
		return a.saveConverted(cmd, opts.save, results[0])
	}

	if opts.outDir == "" {
		_, err = cmd.OutOrStdout().Write(withNewline(results[0].data))
		return errors.Wrap(err, "unable to write output")
	}

	err = os.MkdirAll(opts.outDir, 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", opts.outDir)
	}

	for _, res := range results {
		target := filepath.Join(opts.outDir, outputName(res.source, format))

		err = os.WriteFile(target, withNewline(res.data), 0o644)
		if err != nil {
			return errors.Wrapf(err, "unable to write %s", target)
		}
		fmt.Fprintln(cmd.OutOrStdout(), target)
	}

	return nil
}

func (a *app) saveConverted(cmd *cobra.Command, id string, res *converted) error {
	lib, err := a.library()
	if err != nil {
		return err
	}

	path, err := lib.Save(id, library.Meta{Name: res.title}, res.steps)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)

	return nil
}

func outputName(source string, format document.Format) string {
	if source == stdinPath {
		source = "stdin"
	}

	base := filepath.Base(source)

	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + string(format)
}

func withNewline(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\n' {
		return data
	}

	return append(data, '\n')
}
