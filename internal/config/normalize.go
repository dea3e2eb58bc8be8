package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizeStore(); err != nil {
		return err
	}
	if err := c.normalizeEditor(); err != nil {
		return err
	}
	c.normalizeLogging()
	return c.normalizeTranscribe()
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = defaultStorePath
	}
	if strings.TrimSpace(c.Store.Dir) == "" {
		c.Store.Dir = defaultStoreDir
	}

	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	if c.Store.Dir, err = expandPath(c.Store.Dir); err != nil {
		return fmt.Errorf("store.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEditor() error {
	if c.Editor.MaxLineChars == 0 {
		c.Editor.MaxLineChars = defaultMaxLineChars
	}
	if c.Editor.MaxLineDurationMS == 0 {
		c.Editor.MaxLineDurationMS = defaultMaxLineDurationMS
	}
	tag, err := CanonicalLanguage(c.Editor.Language)
	if err != nil {
		return fmt.Errorf("editor.language: %w", err)
	}
	c.Editor.Language = tag
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "auto"
	}
}

func (c *Config) normalizeTranscribe() error {
	c.Transcribe.Provider = strings.ToLower(strings.TrimSpace(c.Transcribe.Provider))
	if c.Transcribe.Provider == "" {
		c.Transcribe.Provider = defaultProvider
	}
	c.Transcribe.Model = strings.TrimSpace(c.Transcribe.Model)

	tag, err := CanonicalLanguage(c.Transcribe.Language)
	if err != nil {
		return fmt.Errorf("transcribe.language: %w", err)
	}
	c.Transcribe.Language = tag

	if c.Transcribe.APIKey == "" {
		if value, ok := os.LookupEnv(apiKeyEnv(c.Transcribe.Provider)); ok {
			c.Transcribe.APIKey = strings.TrimSpace(value)
		}
	}
	return nil
}

func apiKeyEnv(provider string) string {
	if provider == "gemini" {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// CanonicalLanguage returns the BCP 47 form of value ("EN_us" becomes
// "en-US"). An empty value stays empty.
func CanonicalLanguage(value string) (string, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", "-"))
	if value == "" {
		return "", nil
	}
	tag, err := language.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", value, err)
	}
	return tag.String(), nil
}
