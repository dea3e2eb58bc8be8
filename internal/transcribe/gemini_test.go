package transcribe

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/subedit/internal/transcript"
)

func TestExtractTimedItems(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{
			name: "plain valid array",
			input: `[
				{"start": 0.0, "end": 2.5, "text": "Hello world"},
				{"start": 2.5, "end": 5.0, "text": "How are you"}
			]`,
			wantCount: 2,
		},
		{
			name: "preamble with valid array",
			input: `Here is the JSON transcript:
			[
				{"start": 0.0, "end": 2.5, "text": "Hello world"},
				{"start": 2.5, "end": 5.0, "text": "How are you"}
			]`,
			wantCount: 2,
		},
		{
			name: "valid array with trailing text",
			input: `[
				{"start": 0.0, "end": 2.5, "text": "Hello world"}
			]
			I hope this helps! Let me know if you need anything else.`,
			wantCount: 1,
		},
		{
			name: "preamble and trailing text",
			input: `Here is your transcript:
			[{"start": 1.0, "end": 3.0, "text": "Test segment"}]
			That's all!`,
			wantCount: 1,
		},
		{
			name:      "code fenced JSON (after cleanJSONResponse)",
			input:     `[{"start": 0.0, "end": 1.5, "text": "Fenced content"}]`,
			wantCount: 1,
		},
		{
			name: "wrapper object with segments key",
			input: `{"segments": [
				{"start": 0.0, "end": 2.0, "text": "Wrapped segment"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with transcript key",
			input: `{"transcript": [
				{"start": 0.0, "end": 2.0, "text": "From transcript key"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with data key",
			input: `{"data": [
				{"start": 0.0, "end": 2.0, "text": "From data key"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with unknown key",
			input: `{"myCustomKey": [
				{"start": 0.0, "end": 2.0, "text": "From unknown key"}
			]}`,
			wantCount: 1,
		},
		{
			name: "unrelated object first then transcript array",
			input: `{"status": "ok", "count": 5}
			[{"start": 0.0, "end": 2.0, "text": "Real transcript"}]`,
			wantCount: 1,
		},
		{
			name: "multiple arrays picks first valid",
			input: `[1, 2, 3]
			[{"start": 0.0, "end": 2.0, "text": "Actual transcript"}]`,
			wantCount: 1,
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   `This is just plain text with no JSON content.`,
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			input:   `[{"start": 0.0, "end": 2.0, "text": "incomplete"`,
			wantErr: true,
		},
		{
			name:    "array with empty segments",
			input:   `[{"start": 0, "end": 0, "text": ""}]`,
			wantErr: true,
		},
		{
			name:      "array with valid timestamps but empty text",
			input:     `[{"start": 1.0, "end": 2.0, "text": ""}]`,
			wantCount: 1,
		},
		{
			name: "complex preamble with explanation",
			input: `I've analyzed the audio and created a transcript for you. The audio appears to be in English. Here is the formatted JSON output:

			[
				{"start": 0.0, "end": 3.5, "text": "Welcome to the show"},
				{"start": 3.5, "end": 7.2, "text": "Today we'll be discussing AI"}
			]

			Note: Timestamps are in seconds. Let me know if you need any adjustments!`,
			wantCount: 2,
		},
		{
			name: "word level items",
			input: `[
				{"word": "Good", "start": 0.0, "end": 0.4},
				{"word": "morning.", "start": 0.4, "end": 1.0}
			]`,
			wantCount: 2,
		},
		{
			name:      "bracketed prose before array",
			input:     `[Music] then: [{"word": "hi", "start": 1.0, "end": 1.2}]`,
			wantCount: 1,
		},
		{
			name: "nested wrapper object",
			input: `{
				"response": {
					"segments": [{"start": 0.0, "end": 1.0, "text": "Nested"}]
				}
			}`,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := extractTimedItems(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != tt.wantCount {
				t.Errorf("got %d items, want %d", len(items), tt.wantCount)
			}
		})
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON",
			input: `[{"start": 0, "end": 1, "text": "hello"}]`,
			want:  `[{"start": 0, "end": 1, "text": "hello"}]`,
		},
		{
			name:  "json code fence",
			input: "```json\n[{\"start\": 0, \"end\": 1, \"text\": \"hello\"}]\n```",
			want:  `[{"start": 0, "end": 1, "text": "hello"}]`,
		},
		{
			name:  "plain code fence",
			input: "```\n[{\"start\": 0, \"end\": 1, \"text\": \"hello\"}]\n```",
			want:  `[{"start": 0, "end": 1, "text": "hello"}]`,
		},
		{
			name:  "with leading/trailing whitespace",
			input: "  \n\n```json\n[{\"start\": 0}]\n```\n\n  ",
			want:  `[{"start": 0}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.input); got != tt.want {
				t.Errorf("cleanJSONResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name  string
		items []timedItem
		want  bool
	}{
		{"empty slice", []timedItem{}, false},
		{"nil slice", nil, false},
		{"item with text", []timedItem{{Text: "hello"}}, true},
		{"item with word", []timedItem{{Word: "hello"}}, true},
		{"item with start time", []timedItem{{Start: 1.0}}, true},
		{"item with end time", []timedItem{{End: 2.0}}, true},
		{"all zero item", []timedItem{{}}, false},
		{
			"multiple items one valid",
			[]timedItem{{}, {Start: 1.0, End: 2.0, Text: "valid"}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validateItems(tt.items); got != tt.want {
				t.Errorf("validateItems() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseItems(t *testing.T) {
	input := "```json\n" + `{"words": [
		{"word": "Good", "start": 0.0, "end": 0.4},
		{"word": "", "start": 0.4, "end": 0.5},
		{"text": "morning everyone.", "start": 0.5, "end": 1.5}
	]}` + "\n```"

	words, err := parseItems(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []transcript.Word{
		{Start: 0, End: 400, Text: "Good"},
		{Start: 500, End: 1000, Text: "morning"},
		{Start: 1000, End: 1500, Text: "everyone."},
	}
	if diff := cmp.Diff(want, words); diff != "" {
		t.Errorf("words mismatch (-want +got):\n%s", diff)
	}

	if _, err := parseItems("no json here"); err == nil {
		t.Error("expected error for a response without items")
	}
}

func TestSpreadWords(t *testing.T) {
	got := spreadWords("a b c", 1000, 2000)
	want := []transcript.Word{
		{Start: 1000, End: 1333, Text: "a"},
		{Start: 1333, End: 1666, Text: "b"},
		{Start: 1666, End: 2000, Text: "c"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spreadWords mismatch (-want +got):\n%s", diff)
	}
	if words := spreadWords("   ", 0, 10); words != nil {
		t.Errorf("expected nil for blank text, got %v", words)
	}
}

func TestBuildTranscriptionPrompt(t *testing.T) {
	prompt := buildTranscriptionPrompt(Options{Language: "ja", Prompt: "Names: Hana."})
	for _, want := range []string{"'word', 'start', and 'end'", "The audio is in ja.", "Names: Hana."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q, got %q", want, prompt)
		}
	}
}
