package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/subedit/internal/session"
	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/timecode"
	"github.com/mgpai22/subedit/internal/transcript"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:02,500
Hello there.

2
00:00:03,000 --> 00:00:04,000
General Kenobi.
`

type cliTestEnv struct {
	baseDir    string
	configPath string
}

func setupCLITestEnv(t *testing.T, backend string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Chdir(base)

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[store]
backend = %q
path = %q
dir = %q

[logging]
level = "error"
format = "console"
`, backend, filepath.Join(base, "sessions.db"), filepath.Join(base, "sessions"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func (env *cliTestEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(env.baseDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("%s: %v (stderr: %s)", strings.Join(args, " "), err, stderr)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got %q", substr, output)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected output not to contain %q, got %q", substr, output)
	}
}

func TestSessionWorkflow(t *testing.T) {
	env := setupCLITestEnv(t, "yaml")
	input := env.writeFile(t, "episode.srt", sampleSRT)

	out := mustRun(t, env, "import", input)
	requireContains(t, out, "Imported 2 lines into session episode")

	out = mustRun(t, env, "lines", "episode")
	requireContains(t, out, "Hello there.")
	requireContains(t, out, "0:00:01.000")

	out = mustRun(t, env, "edit", "episode", "1", "--text", "Hi.")
	requireContains(t, out, "Line 1 edited")

	out = mustRun(t, env, "export", "episode")
	requireContains(t, out, "00:00:01,000 --> 00:00:02,500\nHi.\n")

	out = mustRun(t, env, "undo", "episode")
	requireContains(t, out, "Undid update_line")

	out = mustRun(t, env, "export", "episode")
	requireContains(t, out, "Hello there.")
	requireNotContains(t, out, "Hi.")

	out = mustRun(t, env, "redo", "episode")
	requireContains(t, out, "Redid update_line")

	out = mustRun(t, env, "history", "episode")
	requireContains(t, out, "update_line")
	requireContains(t, out, "applied")

	target := filepath.Join(env.baseDir, "out", "episode.vtt")
	out = mustRun(t, env, "export", "episode", "-o", target)
	requireContains(t, out, "Exported 2 lines")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	requireContains(t, string(data), "WEBVTT")
	requireContains(t, string(data), "Hi.")

	out = mustRun(t, env, "sessions", "list")
	requireContains(t, out, "episode")

	out = mustRun(t, env, "sessions", "delete", "episode")
	requireContains(t, out, "Deleted session episode")

	_, _, err = runCLI(t, []string{"lines", "episode"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `no session named "episode"`) {
		t.Fatalf("expected missing session error, got %v", err)
	}
}

func TestEditMatchingSavedValue(t *testing.T) {
	env := setupCLITestEnv(t, "yaml")
	input := env.writeFile(t, "episode.srt", sampleSRT)
	mustRun(t, env, "import", input)

	requireContains(t, mustRun(t, env, "edit", "episode", "2", "--end", "4500"), "Line 2 edited")
	requireContains(t, mustRun(t, env, "edit", "episode", "2", "--end", "0:00:04.500"), "Line 2 unchanged from saved")

	out := mustRun(t, env, "history", "episode")
	if got := strings.Count(out, "update_line"); got != 1 {
		t.Errorf("expected 1 history entry, got %d", got)
	}
}

func TestImportRefusesExistingSession(t *testing.T) {
	env := setupCLITestEnv(t, "yaml")
	input := env.writeFile(t, "episode.srt", sampleSRT)
	mustRun(t, env, "import", input)

	_, _, err := runCLI(t, []string{"import", input}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing session error, got %v", err)
	}

	out := mustRun(t, env, "import", input, "--force", "--topic", "episode")
	requireContains(t, out, "Imported 2 lines")
}

func TestSQLiteBackendKeepsHistory(t *testing.T) {
	env := setupCLITestEnv(t, "sqlite")
	input := env.writeFile(t, "pilot.srt", sampleSRT)

	mustRun(t, env, "import", input, "--topic", "pilot")

	out := mustRun(t, env, "shift", "pilot", "+500")
	requireContains(t, out, "Shifted 2 lines by 500ms")

	out = mustRun(t, env, "export", "pilot")
	requireContains(t, out, "00:00:01,500 --> 00:00:03,000")
	requireContains(t, out, "00:00:03,500 --> 00:00:04,500")

	out = mustRun(t, env, "sessions", "ls")
	requireContains(t, out, "pilot")

	out = mustRun(t, env, "undo", "pilot")
	requireContains(t, out, "Undid update_lines")

	out = mustRun(t, env, "export", "pilot")
	requireContains(t, out, "00:00:01,000 --> 00:00:02,500")

	_, _, err := runCLI(t, []string{"undo", "pilot"}, env.configPath)
	if err == nil {
		t.Fatal("expected undo on an empty history to fail")
	}
}

func TestInsertDeleteAndRecover(t *testing.T) {
	env := setupCLITestEnv(t, "yaml")
	input := env.writeFile(t, "episode.srt", sampleSRT)
	mustRun(t, env, "import", input)

	out := mustRun(t, env, "insert", "episode", "2")
	requireContains(t, out, "Inserted line 2 (0:00:02.500 - 0:00:03.000)")
	requireContains(t, mustRun(t, env, "export", "episode"), "\n3\n00:00:03,000")

	out = mustRun(t, env, "delete", "episode", "2")
	requireContains(t, out, "Deleted line 2")
	requireNotContains(t, mustRun(t, env, "export", "episode"), "\n3\n")

	mustRun(t, env, "edit", "episode", "1", "--text", "Hi.")
	out = mustRun(t, env, "recover", "episode", "1")
	requireContains(t, out, "Recovered line 1")

	out = mustRun(t, env, "replace", "episode", "Kenobi", "Grievous")
	requireContains(t, out, "Replaced text in 1 line")

	out = mustRun(t, env, "export", "episode", "--format", "notime")
	requireContains(t, out, "Hello there.")
	requireContains(t, out, "General Grievous.")
}

func TestConvertCommand(t *testing.T) {
	env := setupCLITestEnv(t, "yaml")
	input := env.writeFile(t, "episode.srt", sampleSRT)
	output := filepath.Join(env.baseDir, "episode.vtt")

	out := mustRun(t, env, "convert", input, output)
	requireContains(t, out, "Converted 2 lines")

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read converted file: %v", err)
	}
	requireContains(t, string(data), "00:00:01.000 --> 00:00:02.500")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "yaml")

	out := mustRun(t, env, "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Store: yaml")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil {
		t.Fatal("expected config init to refuse an existing file")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Store: sqlite")
}

func TestTranslateRequiresTargetLanguage(t *testing.T) {
	env := setupCLITestEnv(t, "yaml")
	_, _, err := runCLI(t, []string{"translate", "episode"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "target-language") {
		t.Fatalf("expected missing flag error, got %v", err)
	}
}

func TestParseLineSet(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []int
		wantErr  bool
	}{
		{name: "empty", input: "", expected: nil},
		{name: "single", input: "3", expected: []int{2}},
		{name: "list and range", input: "1, 3,5-7", expected: []int{0, 2, 4, 5, 6}},
		{name: "duplicates", input: "2,1-3", expected: []int{0, 1, 2}},
		{name: "reversed range", input: "5-2", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "garbage", input: "a-b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLineSet(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("line set mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDelta(t *testing.T) {
	tests := []struct {
		input    string
		expected timecode.Millis
	}{
		{"500", 500},
		{"+1500", 1500},
		{"-250", -250},
		{"-0:00:01.200", -1200},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDelta(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestTopicFromPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/media/Episode 01.srt", "Episode-01"},
		{"show.s01e02.vtt", "show.s01e02"},
		{".hidden.srt", "hidden"},
		{"clip (final).mp4", "clip-final-"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := topicFromPath(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestBindAllEndsLinesAtLastWord(t *testing.T) {
	words := []transcript.Word{
		{Start: 0, End: 400, Text: "Hello"},
		{Start: 400, End: 900, Text: "world."},
		{Start: 1000, End: 1300, Text: "Next"},
		{Start: 1300, End: 1800, Text: "one."},
	}
	tr := transcript.FromWords(words, transcript.DefaultPolicy())
	clock := &runEndClock{words: words}
	s := session.New(&subtitle.Subtitle{}, tr, session.Options{TopicID: "bind", Clock: clock})
	clock.transcript = s.Transcript()

	n, err := bindAll(s)
	if err != nil {
		t.Fatalf("bindAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}

	type got struct {
		Start, End timecode.Millis
		Content    string
	}
	var lines []got
	for _, l := range s.Subtitle().Lines {
		lines = append(lines, got{Start: l.Start, End: l.End, Content: l.Content})
	}
	expected := []got{
		{Start: 0, End: 900, Content: "Hello world."},
		{Start: 900, End: 1800, Content: "Next one."},
	}
	if diff := cmp.Diff(expected, lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if s.Transcript().Unbound() != 0 {
		t.Errorf("expected every span bound, got %d unbound", s.Transcript().Unbound())
	}
}
