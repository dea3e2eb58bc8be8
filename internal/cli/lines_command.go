package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/timecode"
)

func newLinesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lines [topic]",
		Short: "List the lines of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := ctx.loadSession(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			lines := s.Subtitle().Lines
			if len(lines) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Session has no lines")
				return nil
			}

			rows := make([][]string, len(lines))
			for i, l := range lines {
				rows[i] = []string{
					strconv.Itoa(i + 1),
					timecode.Format(l.Start),
					timecode.Format(l.End),
					string(l.Status()),
					oneLine(l.Content),
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Start", "End", "Status", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		formatName string
		output     string
		frameRate  int
	)

	cmd := &cobra.Command{
		Use:   "export [topic]",
		Short: "Write the current lines of a session to a subtitle file",
		Long: `Export a session in any supported format.

Without --output the result is printed to stdout. Without --format the
format is taken from the output extension, or SRT when printing.

Examples:
  subedit export ep-01 -o ep-01.vtt
  subedit export ep-01 --format inline --frame-rate 25`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := ctx.loadSession(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}

			format := subtitle.FormatSRT
			if formatName != "" || output != "" {
				if format, err = resolveFormat(formatName, output); err != nil {
					return err
				}
			}

			data, err := s.Export(format, subtitle.Options{FrameRate: frameRate})
			if err != nil {
				return fmt.Errorf("failed to export session: %w", err)
			}
			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), data)
				return nil
			}
			if err := os.WriteFile(output, []byte(data), 0o644); err != nil {
				return fmt.Errorf("failed to write subtitle file: %w", err)
			}

			ctx.logger.Infow("Exported session",
				"topic", s.TopicID(),
				"output", output,
				"format", format,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s: %s\n", plural(s.Subtitle().Len(), "line"), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "Output format (srt, vtt, inline, notime, ssa, ttml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	cmd.Flags().IntVar(&frameRate, "frame-rate", 0, "Frame rate (defaults to the session's)")
	return cmd
}
