package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subedit/internal/media"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "probe [media_file]",
		Short:       "Show duration, frame rate and streams of a media file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := media.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Duration", info.Duration.String()},
				{"Codec", info.Codec},
				{"Size", fmt.Sprintf("%dx%d", info.Width, info.Height)},
				{"Frame rate", strconv.FormatFloat(info.FrameRate, 'f', 3, 64)},
				{"Audio", strconv.FormatBool(info.HasAudio)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			ctx.logger.Debugw("Probed media", "path", info.Path, "fps", info.Fps())
			return nil
		},
	}
}
