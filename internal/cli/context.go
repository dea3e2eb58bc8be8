package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mgpai22/subedit/internal/config"
	"github.com/mgpai22/subedit/internal/logging"
	"github.com/mgpai22/subedit/internal/session"
	"github.com/mgpai22/subedit/internal/sessionfile"
	"github.com/mgpai22/subedit/internal/store"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	config     *config.Config
	configPath string
	logger     *logging.Logger
	backend    backend
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func newFallbackLogger(verbose bool) *logging.Logger {
	return logging.NewLogger(verbose)
}

// ensureConfig loads .env, then the configuration file, and builds the
// logger it describes.
func (c *commandContext) ensureConfig() error {
	if c.config != nil {
		return nil
	}
	// a missing .env is normal
	_ = godotenv.Load()

	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return err
	}

	logCfg := cfg.LoggingConfig()
	if c.verbose != nil && *c.verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}

	c.config = cfg
	c.configPath = resolved
	c.logger = logger
	c.logger.Debugw("Loaded configuration",
		"path", resolved,
		"exists", exists,
		"backend", cfg.Store.Backend,
	)
	return nil
}

// openBackend opens the session store selected by the configuration. The
// store stays open until the command finishes.
func (c *commandContext) openBackend() (backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	if c.config == nil {
		return nil, errors.New("configuration not loaded")
	}

	switch c.config.Store.Backend {
	case config.BackendSQLite:
		st, err := store.Open(c.config.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		c.backend = &sqliteBackend{st}
	case config.BackendYAML:
		c.backend = &fileBackend{sessionfile.New(c.config.Store.Dir)}
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", c.config.Store.Backend)
	}
	return c.backend, nil
}

func (c *commandContext) sessionOptions(topic string, clock session.Clock) session.Options {
	return session.Options{TopicID: topic, Clock: clock, Logger: c.logger}
}

// loadSession opens the store and replays the session for topic. clock may
// be nil.
func (c *commandContext) loadSession(ctx context.Context, topic string, clock session.Clock) (*session.Session, backend, error) {
	b, err := c.openBackend()
	if err != nil {
		return nil, nil, err
	}
	s, err := session.Load(ctx, b, topic, c.sessionOptions(topic, clock))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, nil, fmt.Errorf("no session named %q (import a track first)", topic)
		}
		return nil, nil, err
	}
	return s, b, nil
}

// mutate loads topic, runs fn and saves the session when fn succeeds.
func (c *commandContext) mutate(ctx context.Context, topic string, fn func(*session.Session) error) error {
	return c.mutateWith(ctx, topic, nil, fn)
}

func (c *commandContext) mutateWith(ctx context.Context, topic string, clock session.Clock, fn func(*session.Session) error) error {
	s, b, err := c.loadSession(ctx, topic, clock)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return s.Save(ctx, b)
}

func (c *commandContext) close() error {
	if c.backend == nil {
		return nil
	}
	err := c.backend.Close()
	c.backend = nil
	return err
}
