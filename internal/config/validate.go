package config

import (
	"errors"
	"fmt"

	"github.com/mgpai22/subedit/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEditor(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateTranscribe()
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path must be set for the sqlite backend")
		}
	case BackendYAML:
		if c.Store.Dir == "" {
			return errors.New("store.dir must be set for the yaml backend")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendSQLite, BackendYAML, c.Store.Backend)
	}
	return nil
}

func (c *Config) validateEditor() error {
	if c.Editor.FrameRate < 0 {
		return errors.New("editor.frame_rate must not be negative")
	}
	if c.Editor.WordLimit < 0 {
		return errors.New("editor.word_limit must not be negative")
	}
	if c.Editor.MaxLineChars < 0 {
		return errors.New("editor.max_line_chars must not be negative")
	}
	if c.Editor.MaxLineDurationMS < 0 {
		return errors.New("editor.max_line_duration_ms must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logging.New(c.LoggingConfig()); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	switch c.Transcribe.Provider {
	case "openai", "gemini":
		return nil
	default:
		return fmt.Errorf("transcribe.provider must be openai or gemini, got %q", c.Transcribe.Provider)
	}
}
