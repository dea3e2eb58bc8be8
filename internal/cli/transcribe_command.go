package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subedit/internal/history"
	"github.com/mgpai22/subedit/internal/media"
	"github.com/mgpai22/subedit/internal/session"
	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/timecode"
	"github.com/mgpai22/subedit/internal/transcribe"
	"github.com/mgpai22/subedit/internal/transcript"
	"github.com/mgpai22/subedit/internal/translate"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		topic        string
		provider     string
		model        string
		language     string
		prompt       string
		chunkMinutes int
		concurrency  int
		wordsOut     string
		autoBind     bool
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe [media_file]",
		Short: "Transcribe an audio or video file into a new session",
		Long: `Transcribe the specified audio or video file and start a session whose
transcript holds the recognised words.

Audio is extracted and compressed with ffmpeg, split into chunks (default
1 minute) and transcribed in parallel. The session starts with no lines:
bind transcript runs to lines with the bind command, or pass --auto-bind
to create one line per run ending with its last word.

Examples:
  subedit transcribe episode.mp4 --auto-bind
  subedit transcribe podcast.mp3 --provider gemini -d 2 --concurrency 5
  subedit transcribe interview.wav --words-out interview.words.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaPath := args[0]
			cfg := ctx.config
			runCtx := cmd.Context()

			if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", mediaPath)
			}
			if !media.IsMediaFile(mediaPath) {
				return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
			}
			if chunkMinutes <= 0 {
				return fmt.Errorf("chunk duration must be positive, got %d", chunkMinutes)
			}

			if provider == "" {
				provider = cfg.Transcribe.Provider
			}
			if model == "" {
				model = cfg.Transcribe.Model
			}
			if language == "" {
				language = cfg.Transcribe.Language
			}
			apiKey := cfg.Transcribe.APIKey
			if provider != cfg.Transcribe.Provider {
				apiKey = os.Getenv(providerKeyEnv(provider))
			}
			if apiKey == "" {
				return fmt.Errorf("API key is required: set transcribe.api_key or %s", providerKeyEnv(provider))
			}

			if topic == "" {
				topic = topicFromPath(mediaPath)
			}
			b, err := ctx.openBackend()
			if err != nil {
				return err
			}
			if !force {
				if _, err := b.Load(runCtx, topic); err == nil {
					return fmt.Errorf("session %q already exists (use --force to replace it)", topic)
				} else if !errors.Is(err, session.ErrNotFound) {
					return err
				}
			}

			transcriber, err := transcribe.Factory(runCtx, transcribe.Provider(provider), apiKey, transcribe.Options{
				Language: language,
				Model:    model,
				Prompt:   prompt,
			})
			if err != nil {
				return fmt.Errorf("failed to create transcriber: %w", err)
			}

			logger := ctx.logger
			logger.Infow("Starting transcription",
				"input", mediaPath,
				"topic", topic,
				"provider", provider,
				"chunk_minutes", chunkMinutes,
				"concurrency", concurrency,
			)

			tempDir, err := os.MkdirTemp("", "subedit-*")
			if err != nil {
				return fmt.Errorf("failed to create temp directory: %w", err)
			}
			defer os.RemoveAll(tempDir)

			audioPath := filepath.Join(tempDir, "audio.mp3")
			logger.Infow("Extracting audio")
			if err := media.ExtractAudio(runCtx, mediaPath, audioPath, media.DefaultAudioOptions()); err != nil {
				return fmt.Errorf("failed to extract audio: %w", err)
			}

			chunks, err := media.SplitAudio(runCtx, audioPath, time.Duration(chunkMinutes)*time.Minute, filepath.Join(tempDir, "chunks"), 0)
			if err != nil {
				return fmt.Errorf("failed to split audio: %w", err)
			}
			logger.Infow("Created audio chunks", "count", len(chunks))

			result, err := transcribe.TranscribeChunks(runCtx, transcriber, chunks, concurrency)
			if err != nil {
				return fmt.Errorf("transcription failed: %w", err)
			}
			logger.Infow("Transcription complete",
				"words", len(result.Words),
				"duration", result.Duration.String(),
			)

			if wordsOut != "" {
				data, err := json.MarshalIndent(result.Words, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(wordsOut, data, 0o644); err != nil {
					return fmt.Errorf("failed to write word list: %w", err)
				}
			}

			sub := &subtitle.Subtitle{
				FrameRate: cfg.Editor.FrameRate,
				WordLimit: cfg.Editor.WordLimit,
				Language:  language,
			}
			tr := transcript.FromWords(result.Words, cfg.Policy())

			clock := &runEndClock{words: result.Words}
			s := session.New(sub, tr, session.Options{TopicID: topic, Clock: clock, Logger: logger})
			clock.transcript = s.Transcript()

			bound := 0
			if autoBind {
				if bound, err = bindAll(s); err != nil {
					return err
				}
			}
			if err := s.Save(runCtx, b); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transcribed %s into session %s\n", plural(len(result.Words), "word"), topic)
			if autoBind {
				fmt.Fprintf(out, "  Lines: %d\n", bound)
			}
			if wordsOut != "" {
				fmt.Fprintf(out, "  Words: %s\n", wordsOut)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Session name (defaults to the file name)")
	cmd.Flags().StringVar(&provider, "provider", "", "Transcription provider (openai, gemini)")
	cmd.Flags().StringVar(&model, "model", "", "Provider model (uses sensible defaults)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language of the audio (e.g., en, es, fr)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Extra instructions or vocabulary for the provider")
	cmd.Flags().IntVarP(&chunkMinutes, "chunk-duration", "d", 1, "Chunk duration in minutes for splitting audio")
	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "Number of parallel transcription workers")
	cmd.Flags().StringVar(&wordsOut, "words-out", "", "Also write the timed word list (JSON) here")
	cmd.Flags().BoolVar(&autoBind, "auto-bind", false, "Create one line per transcript run")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing session with the same name")
	return cmd
}

// providerKeyEnv names the environment variable holding the API key for
// provider.
func providerKeyEnv(provider string) string {
	switch provider {
	case string(transcribe.ProviderGemini):
		return "GEMINI_API_KEY"
	case string(translate.ProviderAnthropic):
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// runEndClock reports, as playback time, the end of the last word in the
// next unbound transcript run.
type runEndClock struct {
	transcript *transcript.Transcript
	words      []transcript.Word
}

func (c *runEndClock) Now() timecode.Millis {
	if c.transcript == nil {
		return 0
	}
	from, to, ok := c.transcript.NextRun()
	if !ok {
		return 0
	}
	var last timecode.Millis
	timed := false
	for _, span := range c.transcript.Spans[from:to] {
		if span.Time != nil && (!timed || *span.Time > last) {
			last = *span.Time
			timed = true
		}
	}
	if !timed {
		return 0
	}
	end := last
	for _, w := range c.words {
		if w.Start == last && w.End > end {
			end = w.End
		}
	}
	return end
}

// bindAll binds every remaining transcript run and returns how many lines
// were created.
func bindAll(s *session.Session) (int, error) {
	n := 0
	for {
		_, err := s.Bind()
		if errors.Is(err, history.ErrNoUnboundSpans) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("failed to bind line %d: %w", n+1, err)
		}
		n++
	}
}
