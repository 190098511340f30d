package codec

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/askiada/go-pipeline-doc/pkg/pipeline/measure"
	"github.com/askiada/go-pipeline-doc/pkg/pipeline/model"
)

type settings struct {
	keywords Keywords
	markers  map[string]struct{}
	logger   *slog.Logger
	observer model.Observer
	newID    func() string
	indent   string
}

func newSettings(opts ...Option) *settings {
	s := &settings{
		keywords: DefaultKeywords(),
		markers:  make(map[string]struct{}),
		logger:   slog.Default(),
		newID:    uuid.NewString,
		indent:   "  ",
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Option configures a Decoder or an Encoder. Options that do not apply are ignored.
type Option func(s *settings)

// WithKeywords sets the document keywords.
func WithKeywords(kw Keywords) Option {
	return func(s *settings) {
		s.keywords = kw
	}
}

// WithMarkers adds bare keywords decoded as marker steps even when the catalog does not
// know them, e.g. chart steps of the backend.
func WithMarkers(markers ...string) Option {
	return func(s *settings) {
		for _, m := range markers {
			s.markers[m] = struct{}{}
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver reports decoded steps to obs.
func WithObserver(obs model.Observer) Option {
	return func(s *settings) {
		s.observer = obs
	}
}

// WithMeasure records per-shape decode statistics in m.
func WithMeasure(m measure.Measure) Option {
	return WithObserver(measure.Observer(m))
}

func WithIDGenerator(gen func() string) Option {
	return func(s *settings) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithIndent sets the indentation of encoded JSON. An empty indent writes compact JSON.
func WithIndent(indent string) Option {
	return func(s *settings) {
		s.indent = indent
	}
}
