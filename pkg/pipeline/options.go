package pipeline

import (
	"log/slog"
)

// TreeOption configures a Tree.
type TreeOption func(t *Tree)

// WithLogger sets the logger used to report rejected mutations.
func WithLogger(logger *slog.Logger) TreeOption {
	return func(t *Tree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithIDGenerator replaces the uuid generator used for new nodes.
func WithIDGenerator(gen func() string) TreeOption {
	return func(t *Tree) {
		if gen != nil {
			t.newID = gen
		}
	}
}
