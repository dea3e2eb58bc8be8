package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/subedit/internal/media"
	"github.com/mgpai22/subedit/internal/transcript"
)

// implements Transcriber interface using OpenAI Audio API
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

type whisperWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// segment from OpenAI Whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Words    []whisperWord    `json:"words"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file with word timestamps
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var duration time.Duration
	if info, err := media.Probe(ctx, audioPath); err == nil {
		duration = info.Duration
	}

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}
	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	words, language, err := parseVerboseJSONResponse(resp.RawJSON(), duration)
	if err != nil {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil, fmt.Errorf("failed to parse transcription: %w", err)
		}
		words = spreadWords(text, 0, seconds(duration.Seconds()))
	}
	if language == "" {
		language = t.options.Language
	}

	return &Result{
		Words:    words,
		Language: language,
		Duration: duration,
	}, nil
}

// parseVerboseJSONResponse prefers word timestamps. Without them, segment
// words are spread evenly across their segment, and a bare text spans the
// whole file.
func parseVerboseJSONResponse(
	rawJSON string,
	fallbackDuration time.Duration,
) ([]transcript.Word, string, error) {
	if rawJSON == "" {
		return nil, "", fmt.Errorf("empty response")
	}

	var resp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
		return nil, "", fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(resp.Words) > 0 {
		words := make([]transcript.Word, 0, len(resp.Words))
		for _, w := range resp.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			words = append(words, transcript.Word{
				Start: seconds(w.Start),
				End:   seconds(w.End),
				Text:  text,
			})
		}
		return words, resp.Language, nil
	}

	if len(resp.Segments) > 0 {
		var words []transcript.Word
		for _, seg := range resp.Segments {
			words = append(words, spreadWords(seg.Text, seconds(seg.Start), seconds(seg.End))...)
		}
		return words, resp.Language, nil
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, "", fmt.Errorf("no words, segments or text in response")
	}
	dur := fallbackDuration
	if resp.Duration > 0 {
		dur = time.Duration(resp.Duration * float64(time.Second))
	}
	return spreadWords(text, 0, seconds(dur.Seconds())), resp.Language, nil
}
