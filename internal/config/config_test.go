package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/subedit/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "subedit", "config.toml"); resolved != want {
		t.Errorf("expected resolved path %q, got %q", want, resolved)
	}
	if cfg.Store.Backend != config.BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.Store.Backend)
	}
	if want := filepath.Join(home, ".local", "share", "subedit", "sessions.db"); cfg.Store.Path != want {
		t.Errorf("expected store path %q, got %q", want, cfg.Store.Path)
	}
	if cfg.Transcribe.APIKey != "sk-test" {
		t.Errorf("expected API key from env, got %q", cfg.Transcribe.APIKey)
	}
	policy := cfg.Policy()
	if policy.MaxChars != 84 || policy.MaxDuration != 7000 {
		t.Errorf("unexpected policy %+v", policy)
	}
}

func TestLoadProjectFile(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "gm-key")

	content := `
[store]
backend = "YAML"
dir = "sessions"

[editor]
frame_rate = 25
language = "pt_br"

[logging]
level = "DEBUG"
format = "json"

[transcribe]
provider = "gemini"
`
	if err := os.WriteFile("subedit.toml", []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || !strings.HasSuffix(resolved, "subedit.toml") {
		t.Errorf("expected project config, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Store.Backend != config.BackendYAML {
		t.Errorf("expected yaml backend, got %q", cfg.Store.Backend)
	}
	if !filepath.IsAbs(cfg.Store.Dir) {
		t.Errorf("expected absolute store dir, got %q", cfg.Store.Dir)
	}
	if cfg.Editor.FrameRate != 25 {
		t.Errorf("expected frame rate 25, got %d", cfg.Editor.FrameRate)
	}
	if cfg.Editor.Language != "pt-BR" {
		t.Errorf("expected canonical language pt-BR, got %q", cfg.Editor.Language)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Transcribe.APIKey != "gm-key" {
		t.Errorf("expected gemini key from env, got %q", cfg.Transcribe.APIKey)
	}
	if cfg.Editor.MaxLineChars != 84 {
		t.Errorf("expected default max line chars, got %d", cfg.Editor.MaxLineChars)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"backend", "[store]\nbackend = \"redis\"\n", "store.backend"},
		{"frame rate", "[editor]\nframe_rate = -1\n", "editor.frame_rate"},
		{"language", "[editor]\nlanguage = \"not a language\"\n", "editor.language"},
		{"log level", "[logging]\nlevel = \"loud\"\n", "logging"},
		{"provider", "[transcribe]\nprovider = \"whisperx\"\n", "transcribe.provider"},
		{"unknown field", "[editor]\nfps = 25\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	isolate(t)
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}

func TestSampleConfigParses(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "conf", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw config.Config
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if raw.Store.Backend != config.BackendSQLite {
		t.Errorf("expected sample backend sqlite, got %q", raw.Store.Backend)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
}

func TestCanonicalLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"en", "en"},
		{"EN_us", "en-US"},
		{"zh-hant", "zh-Hant"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := config.CanonicalLanguage(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
