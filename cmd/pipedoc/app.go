package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-pipeline-doc/internal/config"
	"github.com/askiada/go-pipeline-doc/internal/library"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/codec"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/measure"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/schema"
)

// stdinPath reads a document from standard input.
const stdinPath = "-"

var ErrDiagnostics = errors.New("documents have diagnostics")

// app holds what every command needs once flags and config files are resolved.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *schema.Registry
	keywords codec.Keywords
	stdin    io.Reader

	loaderOpts []config.LoaderOption
}

func (a *app) setup(cmd *cobra.Command, flags *globalFlags) error {
	bootLevel := slog.LevelInfo
	if flags.logLevel != "" {
		err := bootLevel.UnmarshalText([]byte(flags.logLevel))
		if err != nil {
			return errors.Wrapf(config.ErrInvalidConfig, "log level %q", flags.logLevel)
		}
	}
	stderr := cmd.ErrOrStderr()
	bootLogger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: bootLevel}))

	cfg, err := config.NewLoader(bootLogger, a.loaderOpts...).Load(flags.configPath)
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}

	err = cfg.Merge(&config.Config{
		Schema:  config.SchemaConfig{Path: flags.schemaPath},
		Dialect: flags.dialect,
		Markers: flags.markers,
		Log:     config.LogConfig{Level: flags.logLevel},
	})
	if err != nil {
		return err
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	level, _ := cfg.SlogLevel()
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	a.keywords, _ = cfg.Keywords()
	a.registry = a.loadRegistry()
	a.stdin = cmd.InOrStdin()

	return nil
}

// loadRegistry reads the catalog. Without a usable catalog the commands keep working and
// every step is kept verbatim as an unknown node.
func (a *app) loadRegistry() *schema.Registry {
	if a.cfg.Schema.Path == "" {
		a.logger.Debug("no component catalog configured")
		return schema.Empty()
	}

	reg, err := schema.LoadFile(a.cfg.Schema.Path)
	if err != nil {
		a.logger.Warn("component catalog unavailable, documents are kept verbatim",
			slog.String("path", a.cfg.Schema.Path),
			slog.String("error", err.Error()),
		)
		return schema.Empty()
	}

	a.logger.Debug("component catalog loaded",
		slog.String("path", a.cfg.Schema.Path),
		slog.Int("components", len(reg.Components())),
	)

	return reg
}

func (a *app) decoder(opts ...codec.Option) *codec.Decoder {
	base := []codec.Option{
		codec.WithKeywords(a.keywords),
		codec.WithMarkers(a.cfg.Markers...),
		codec.WithLogger(a.logger),
	}

	return codec.NewDecoder(a.registry, append(base, opts...)...)
}

func (a *app) encoder(kw codec.Keywords) *codec.Encoder {
	return codec.NewEncoder(a.registry,
		codec.WithKeywords(kw),
		codec.WithLogger(a.logger),
		codec.WithIndent(a.cfg.IndentString()),
	)
}

func (a *app) library() (*library.Library, error) {
	return library.New(a.cfg.Library.Dir,
		library.WithPattern(a.cfg.Library.Pattern),
		library.WithLogger(a.logger),
	)
}

// loaded is a document decoded and installed in a tree.
type loaded struct {
	path        string
	tree        *pipeline.Tree
	metadata    *document.Object
	diagnostics []model.Diagnostic
}

func (a *app) readInput(path string) ([]byte, error) {
	if path == stdinPath {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read standard input")
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	return data, nil
}

// load decodes the document at path. msr may be nil.
func (a *app) load(path string, msr measure.Measure) (*loaded, error) {
	data, err := a.readInput(path)
	if err != nil {
		return nil, err
	}

	var opts []codec.Option
	if msr != nil {
		opts = append(opts, codec.WithMeasure(msr))
	}

	res, err := a.decoder(opts...).DecodeBytes(data, document.DetectFormat(path))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", path)
	}

	tree := pipeline.New(a.registry, pipeline.WithLogger(a.logger))
	nesting, err := tree.Load(res.Nodes)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load %s", path)
	}

	out := &loaded{
		path:        path,
		tree:        tree,
		metadata:    res.Metadata,
		diagnostics: append(res.Diagnostics, nesting...),
	}
	for _, diag := range out.diagnostics {
		a.logger.Debug("diagnostic",
			slog.String("file", path),
			slog.String("code", string(diag.Code)),
			slog.String("path", diag.Path),
			slog.String("message", diag.Message),
		)
	}

	return out, nil
}

// documentTitle is the name of a document: its name field, else its file stem.
func documentTitle(l *loaded) string {
	if l.metadata != nil {
		if raw, ok := l.metadata.Get("name"); ok {
			if name, ok := document.AsString(raw); ok && name != "" {
				return name
			}
		}
	}
	if l.path == stdinPath {
		return "stdin"
	}

	base := filepath.Base(l.path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
