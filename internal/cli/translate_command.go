package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subedit/internal/session"
	"github.com/mgpai22/subedit/internal/translate"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var (
		targetLanguage string
		inputLanguage  string
		provider       string
		model          string
		prompt         string
		lineSet        string
		overlay        bool
		batchSize      int
		concurrency    int
	)

	cmd := &cobra.Command{
		Use:   "translate [topic]",
		Short: "Translate the lines of a session",
		Long: `Translate the text of a session's lines with an AI provider.

Lines are sent in batches and the translations are applied as a single
edit, so one undo restores the original text. Timing is not changed.

Supported providers: gemini, openai, anthropic.

Examples:
  subedit translate ep-01 -t es
  subedit translate ep-01 -t fr --provider anthropic --lines 1-20
  subedit translate ep-01 -t en --overlay --batch-size 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := args[0]
			cfg := ctx.config

			var indexes []int
			if lineSet != "" {
				var err error
				if indexes, err = parseLineSet(lineSet); err != nil {
					return err
				}
			}

			if provider == "" {
				provider = cfg.Transcribe.Provider
			}
			apiKey := cfg.Transcribe.APIKey
			if provider != cfg.Transcribe.Provider {
				apiKey = os.Getenv(providerKeyEnv(provider))
			}
			if apiKey == "" {
				return fmt.Errorf("API key is required: set transcribe.api_key or %s", providerKeyEnv(provider))
			}

			translated := 0
			err := ctx.mutate(cmd.Context(), topic, func(s *session.Session) error {
				lines := s.Subtitle().Lines
				items := translate.ItemsFromLines(lines, indexes)
				if len(items) == 0 {
					return fmt.Errorf("no text to translate in session %q", topic)
				}

				from := inputLanguage
				if from == "" {
					from = s.Subtitle().Language
				}
				translator, err := translate.Factory(cmd.Context(), translate.Provider(provider), apiKey, translate.Options{
					InputLanguage:  from,
					TargetLanguage: targetLanguage,
					Model:          model,
					Prompt:         prompt,
					BatchSize:      batchSize,
					Concurrency:    concurrency,
				})
				if err != nil {
					return fmt.Errorf("failed to create translator: %w", err)
				}

				ctx.logger.Infow("Translating lines",
					"topic", topic,
					"lines", len(items),
					"provider", provider,
					"target", targetLanguage,
				)
				results, err := translator.Translate(cmd.Context(), items)
				if err != nil {
					return fmt.Errorf("translation failed: %w", err)
				}

				translated, err = s.Rewrite(translate.Contents(lines, results, overlay))
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Translated %s\n", plural(translated, "line"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetLanguage, "target-language", "t", "", "Target language (e.g., es, fr, Japanese)")
	cmd.Flags().StringVar(&inputLanguage, "input-language", "", "Source language (defaults to the session language)")
	cmd.Flags().StringVar(&provider, "provider", "", "Translation provider (gemini, openai, anthropic)")
	cmd.Flags().StringVar(&model, "model", "", "Provider model (uses sensible defaults)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Extra instructions for the translator")
	cmd.Flags().StringVar(&lineSet, "lines", "", "Only translate these lines (e.g., 1,3,5-7)")
	cmd.Flags().BoolVar(&overlay, "overlay", false, "Keep the original text below the translation")
	cmd.Flags().IntVar(&batchSize, "batch-size", translate.DefaultBatchSize, "Lines per API request")
	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "Number of batches translated in parallel")
	_ = cmd.MarkFlagRequired("target-language")
	return cmd
}
