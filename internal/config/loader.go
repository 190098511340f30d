package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// ProjectConfigFile is the name of the project-level config file.
	ProjectConfigFile = "pipedoc.yaml"
	// UserConfigDir is the directory for user-level config, relative to the home directory.
	UserConfigDir = ".config/pipedoc"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger  *slog.Logger
	homeDir string
	workDir string
}

// LoaderOption configures a Loader.
type LoaderOption func(l *Loader)

// WithHomeDir sets the directory holding the user config instead of the user home.
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.homeDir = dir
	}
}

// WithWorkDir sets the directory the project config search starts from instead of the
// current directory.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.workDir = dir
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Loader{logger: logger}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load loads configuration with layered precedence:
//  1. defaults
//  2. user config (~/.config/pipedoc/config.yaml)
//  3. project config (pipedoc.yaml in the current or a parent directory)
//  4. explicit, a file given on the command line, if not empty
//
// A missing user or project file is skipped, a missing explicit file is an error.
func (l *Loader) Load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	if userPath := l.userConfigPath(); userPath != "" {
		err := l.apply(cfg, userPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			l.logger.Warn("failed to load user config", slog.String("path", userPath), slog.String("error", err.Error()))
		default:
			l.logger.Debug("loaded user config", slog.String("path", userPath))
		}
	}

	if projectPath := l.findProjectConfig(); projectPath != "" {
		err := l.apply(cfg, projectPath)
		if err != nil {
			l.logger.Warn("failed to load project config", slog.String("path", projectPath), slog.String("error", err.Error()))
		} else {
			l.logger.Debug("loaded project config", slog.String("path", projectPath))
		}
	} else {
		l.logger.Debug("no project config found")
	}

	if explicit != "" {
		err := l.apply(cfg, explicit)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded config", slog.String("path", explicit))
	}

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) apply(cfg *Config, path string) error {
	layer, err := readFile(path)
	if err != nil {
		return err
	}

	return cfg.Merge(layer)
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist.
func (l *Loader) EnsureUserConfig() (string, error) {
	path := l.userConfigPath()
	if path == "" {
		return "", errors.New("no home directory")
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	err := DefaultConfig().SaveToFile(path)
	if err != nil {
		return "", err
	}

	l.logger.Info("created default user config", slog.String("path", path))

	return path, nil
}

func (l *Loader) userConfigPath() string {
	home := l.homeDir
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return ""
		}
	}

	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for pipedoc.yaml in the work directory and its parents.
func (l *Loader) findProjectConfig() string {
	dir := l.workDir
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return ""
		}
	}

	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
