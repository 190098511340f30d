// Package library stores pipeline documents as files in a directory.
package library

import (
	"bytes"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/document"
)

// DefaultPattern matches the pipeline files of a library.
const DefaultPattern = "*.json"

var (
	ErrPipelineNotFound = errors.New("pipeline not found")
	ErrInvalidID        = errors.New("invalid pipeline id")
	ErrInvalidPattern   = errors.New("invalid library pattern")
)

// extensions are tried in order by Get.
var extensions = []string{".json", ".yaml", ".yml"}

// Summary describes a stored pipeline without its steps.
type Summary struct {
	// ID is the path of the file relative to the library directory, without extension.
	ID          string
	Name        string
	Description string
	CreatedAt   string
	StepsCount  int
	FilePath    string
}

// Meta holds the descriptive fields written next to the steps.
type Meta struct {
	Name        string
	Description string
}

// Library reads and writes pipeline files under one directory.
type Library struct {
	dir     string
	pattern string
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Library.
type Option func(l *Library)

// WithPattern sets the doublestar pattern selecting pipeline files, relative to the
// library directory.
func WithPattern(pattern string) Option {
	return func(l *Library) {
		if pattern != "" {
			l.pattern = pattern
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock sets the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		if now != nil {
			l.now = now
		}
	}
}

// New returns a library rooted at dir.
func New(dir string, opts ...Option) (*Library, error) {
	l := &Library{
		dir:     dir,
		pattern: DefaultPattern,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	if !doublestar.ValidatePattern(l.pattern) {
		return nil, errors.Wrapf(ErrInvalidPattern, "%q", l.pattern)
	}

	return l, nil
}

// Dir returns the library directory.
func (l *Library) Dir() string {
	return l.dir
}

// Matches reports whether rel, a slash separated path relative to the library directory,
// names a pipeline file.
func (l *Library) Matches(rel string) bool {
	ok, err := doublestar.Match(l.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// List returns the summaries of every pipeline file, sorted by id. Files that cannot be
// read or parsed are skipped with a warning. A missing directory is an empty library.
func (l *Library) List() ([]Summary, error) {
	if _, err := os.Stat(l.dir); errors.Is(err, os.ErrNotExist) {
		return []Summary{}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(l.dir), l.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", l.dir)
	}
	slices.Sort(matches)

	out := make([]Summary, 0, len(matches))
	for _, rel := range matches {
		file := filepath.Join(l.dir, filepath.FromSlash(rel))

		v, err := readDocument(file)
		if err != nil {
			l.logger.Warn("skipping pipeline file",
				slog.String("path", file),
				slog.String("error", err.Error()),
			)
			continue
		}

		out = append(out, summarize(idOf(rel), file, v))
	}

	return out, nil
}

// Get loads the document of the pipeline with the given id.
func (l *Library) Get(id string) (document.Value, string, error) {
	if err := validateID(id); err != nil {
		return nil, "", err
	}

	for _, ext := range extensions {
		file := filepath.Join(l.dir, filepath.FromSlash(id)+ext)

		_, err := os.Stat(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", errors.Wrapf(err, "unable to stat %s", file)
		}

		v, err := readDocument(file)
		if err != nil {
			return nil, "", err
		}

		return v, file, nil
	}

	return nil, "", errors.Wrapf(ErrPipelineNotFound, "%q in %s", id, l.dir)
}

// Summary returns the summary of one pipeline.
func (l *Library) Summary(id string) (Summary, error) {
	v, file, err := l.Get(id)
	if err != nil {
		return Summary{}, err
	}

	return summarize(id, file, v), nil
}

// Save writes steps as a wrapper document {name, description, created_at, steps} in JSON
// and returns the file path. An existing file with the same id is replaced.
func (l *Library) Save(id string, meta Meta, steps document.Array) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}

	name := meta.Name
	if name == "" {
		name = path.Base(id)
	}

	doc := document.NewObject().
		Set("name", document.String(name)).
		Set("description", document.String(meta.Description)).
		Set("created_at", document.String(l.now().UTC().Format(time.RFC3339))).
		Set("steps", steps)

	data, err := document.EncodeJSON(doc, "  ")
	if err != nil {
		return "", errors.Wrap(err, "unable to encode pipeline")
	}

	file := filepath.Join(l.dir, filepath.FromSlash(id)+".json")

	err = os.MkdirAll(filepath.Dir(file), 0o755)
	if err != nil {
		return "", errors.Wrapf(err, "unable to create %s", filepath.Dir(file))
	}

	err = os.WriteFile(file, append(data, '\n'), 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "unable to write %s", file)
	}

	l.logger.Debug("pipeline saved", slog.String("id", id), slog.String("path", file))

	return file, nil
}

func readDocument(file string) (document.Value, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", file)
	}

	v, err := document.Decode(bytes.TrimSpace(data), document.DetectFormat(file))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", file)
	}

	return v, nil
}

func summarize(id, file string, v document.Value) Summary {
	s := Summary{ID: id, Name: path.Base(id), FilePath: file}

	switch val := v.(type) {
	case document.Array:
		s.StepsCount = len(val)
	case *document.Object:
		if name, ok := stringField(val, "name"); ok && name != "" {
			s.Name = name
		}
		s.Description, _ = stringField(val, "description")
		s.CreatedAt, _ = stringField(val, "created_at")
		for _, key := range []string{"steps", "pipeline"} {
			raw, _ := val.Get(key)
			if list, ok := document.AsArray(raw); ok {
				s.StepsCount = len(list)
				break
			}
		}
	}

	return s
}

func stringField(obj *document.Object, key string) (string, bool) {
	raw, ok := obj.Get(key)
	if !ok {
		return "", false
	}

	return document.AsString(raw)
}

func idOf(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel))
}

func validateID(id string) error {
	if id == "" || strings.Contains(id, `\`) || path.IsAbs(id) {
		return errors.Wrapf(ErrInvalidID, "%q", id)
	}
	for _, part := range strings.Split(id, "/") {
		if part == "" || part == "." || part == ".." {
			return errors.Wrapf(ErrInvalidID, "%q", id)
		}
	}

	return nil
}
