package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subedit/internal/session"
	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/transcript"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var (
		topic      string
		formatName string
		frameRate  int
		wordsPath  string
		textPath   string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "import [subtitle_file]",
		Short: "Start an editing session from a subtitle file",
		Long: `Import a subtitle file as a new editing session.

The format is taken from the file extension unless --format is given.
A transcript can be attached from a word list (JSON array of
{"start","end","text"}) or from plain text, and later bound to lines
with the bind command.

Examples:
  subedit import episode.srt
  subedit import notes.txt --format inline --frame-rate 25 --topic ep-01
  subedit import episode.srt --words episode.words.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg := ctx.config

			format, err := resolveFormat(formatName, path)
			if err != nil {
				return err
			}
			if frameRate == 0 {
				frameRate = cfg.Editor.FrameRate
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read subtitle file: %w", err)
			}
			sub, err := subtitle.Decode(format, string(data), subtitle.Options{FrameRate: frameRate})
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			if sub.WordLimit == 0 {
				sub.WordLimit = cfg.Editor.WordLimit
			}
			if sub.Language == "" {
				sub.Language = cfg.Editor.Language
			}

			tr, err := loadTranscript(wordsPath, textPath, cfg.Policy())
			if err != nil {
				return err
			}

			if topic == "" {
				topic = topicFromPath(path)
			}
			b, err := ctx.openBackend()
			if err != nil {
				return err
			}
			if !force {
				if _, err := b.Load(cmd.Context(), topic); err == nil {
					return fmt.Errorf("session %q already exists (use --force to replace it)", topic)
				} else if !errors.Is(err, session.ErrNotFound) {
					return err
				}
			}

			s := session.New(sub, tr, ctx.sessionOptions(topic, nil))
			if err := s.Save(cmd.Context(), b); err != nil {
				return err
			}

			ctx.logger.Infow("Imported subtitle track",
				"topic", s.TopicID(),
				"input", path,
				"format", format,
				"lines", sub.Len(),
			)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %s into session %s\n", plural(sub.Len(), "line"), s.TopicID())
			if tr != nil {
				fmt.Fprintf(out, "  Transcript: %d characters\n", tr.Len())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Session name (defaults to the file name)")
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "Input format (srt, vtt, inline, notime, ssa, ttml)")
	cmd.Flags().IntVar(&frameRate, "frame-rate", 0, "Frame rate for frame-based timestamps")
	cmd.Flags().StringVar(&wordsPath, "words", "", "Timed word list (JSON) to attach as transcript")
	cmd.Flags().StringVar(&textPath, "transcript", "", "Plain text to attach as an untimed transcript")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing session with the same name")
	return cmd
}

func loadTranscript(wordsPath, textPath string, policy transcript.Policy) (*transcript.Transcript, error) {
	switch {
	case wordsPath != "" && textPath != "":
		return nil, errors.New("use either --words or --transcript, not both")
	case wordsPath != "":
		data, err := os.ReadFile(wordsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read word list: %w", err)
		}
		var words []transcript.Word
		if err := json.Unmarshal(data, &words); err != nil {
			return nil, fmt.Errorf("failed to parse word list: %w", err)
		}
		return transcript.FromWords(words, policy), nil
	case textPath != "":
		data, err := os.ReadFile(textPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript: %w", err)
		}
		return transcript.FromText(string(data)), nil
	default:
		return nil, nil
	}
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		from      string
		to        string
		frameRate int
	)

	cmd := &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Convert a subtitle file between formats",
		Long: `Convert a subtitle file without creating a session.

Formats are taken from the file extensions unless --from or --to is given.

Examples:
  subedit convert episode.srt episode.vtt
  subedit convert episode.srt episode.txt --to inline --frame-rate 25`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], args[1]

			inFormat, err := resolveFormat(from, input)
			if err != nil {
				return err
			}
			outFormat, err := resolveFormat(to, output)
			if err != nil {
				return err
			}
			if frameRate == 0 {
				frameRate = ctx.config.Editor.FrameRate
			}
			opts := subtitle.Options{FrameRate: frameRate}

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read subtitle file: %w", err)
			}
			sub, err := subtitle.Decode(inFormat, string(data), opts)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", input, err)
			}
			if opts.FrameRate == 0 {
				opts.FrameRate = sub.FrameRate
			}
			if err := subtitle.WriteFile(sub, output, outFormat, opts); err != nil {
				return err
			}

			ctx.logger.Debugw("Converted subtitle file",
				"input", input,
				"output", output,
				"from", inFormat,
				"to", outFormat,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s: %s\n", plural(sub.Len(), "line"), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Input format")
	cmd.Flags().StringVar(&to, "to", "", "Output format")
	cmd.Flags().IntVar(&frameRate, "frame-rate", 0, "Frame rate for frame-based timestamps")
	return cmd
}
