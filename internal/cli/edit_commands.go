package cli

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subedit/internal/session"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var start, end, text string

	cmd := &cobra.Command{
		Use:   "edit [topic] [line]",
		Short: "Change the timing or text of a line",
		Long: `Edit one line. Flags that are not given keep their current value.

Examples:
  subedit edit ep-01 3 --text "Hello there."
  subedit edit ep-01 3 --start 0:00:04.200 --end 5100`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseLineNumber(args[1])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("start") && !flags.Changed("end") && !flags.Changed("text") {
				return fmt.Errorf("nothing to change: use --start, --end or --text")
			}

			return ctx.mutate(cmd.Context(), args[0], func(s *session.Session) error {
				l, err := s.Subtitle().Line(i)
				if err != nil {
					return err
				}
				d := l.Data()
				if flags.Changed("start") {
					if d.Start, err = parseTime(start); err != nil {
						return err
					}
				}
				if flags.Changed("end") {
					if d.End, err = parseTime(end); err != nil {
						return err
					}
				}
				if flags.Changed("text") {
					d.Content = text
				}

				edited, err := s.Edit(i, d)
				if err != nil {
					return err
				}
				state := "unchanged from saved"
				if edited {
					state = "edited"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Line %d %s\n", i+1, state)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "New start time (H:MM:SS.mmm or milliseconds)")
	cmd.Flags().StringVar(&end, "end", "", "New end time (H:MM:SS.mmm or milliseconds)")
	cmd.Flags().StringVar(&text, "text", "", "New text")
	return cmd
}

func newInsertCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "insert [topic] [position]",
		Short: "Insert an empty line that fills the gap at a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseLineNumber(args[1])
			if err != nil {
				return err
			}
			return ctx.mutate(cmd.Context(), args[0], func(s *session.Session) error {
				l, err := s.Insert(at)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inserted line %d (%s - %s)\n", at+1, l.Start, l.End)
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [topic] [line]",
		Short: "Delete a line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseLineNumber(args[1])
			if err != nil {
				return err
			}
			return ctx.mutate(cmd.Context(), args[0], func(s *session.Session) error {
				if err := s.Delete(i); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted line %d\n", i+1)
				return nil
			})
		},
	}
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var offset int

	cmd := &cobra.Command{
		Use:   "split [topic] [line]",
		Short: "Cut a line in two",
		Long: `Split a line before the character at --at. Without --at the line is
cut in the middle of its text.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseLineNumber(args[1])
			if err != nil {
				return err
			}
			return ctx.mutate(cmd.Context(), args[0], func(s *session.Session) error {
				at := offset
				if !cmd.Flags().Changed("at") {
					l, err := s.Subtitle().Line(i)
					if err != nil {
						return err
					}
					at = utf8.RuneCountInString(l.Content) / 2
				}
				if err := s.Split(i, at); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Split line %d at character %d\n", i+1, at)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&offset, "at", 0, "Character offset to split before")
	return cmd
}

func newShiftCommand(ctx *commandContext) *cobra.Command {
	var lines string

	cmd := &cobra.Command{
		Use:   "shift [topic] [offset]",
		Short: "Move lines in time",
		Long: `Shift lines by a signed offset in milliseconds or H:MM:SS.mmm.
Without --lines every line moves.

Examples:
  subedit shift ep-01 -- -1500
  subedit shift ep-01 +0:00:02.000 --lines 4-9`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := parseDelta(args[1])
			if err != nil {
				return err
			}
			indexes, err := parseLineSet(lines)
			if err != nil {
				return err
			}
			return ctx.mutate(cmd.Context(), args[0], func(s *session.Session) error {
				if err := s.Shift(indexes, delta); err != nil {
					return err
				}
				count := len(indexes)
				if indexes == nil {
					count = s.Subtitle().Len()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Shifted %s by %dms\n", plural(count, "line"), int64(delta))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&lines, "lines", "", "Lines to move, e.g. 1,3,5-7")
	return cmd
}

func newReplaceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "replace [topic] [target] [replacement]",
		Short: "Replace text in every line",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.mutate(cmd.Context(), args[0], func(s *session.Session) error {
				n, err := s.Replace(args[1], args[2])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Replaced text in %s\n", plural(n, "line"))
				return nil
			})
		},
	}
}

func newRecoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recover [topic] [line]",
		Short: "Restore the imported text of a line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseLineNumber(args[1])
			if err != nil {
				return err
			}
			return ctx.mutate(cmd.Context(), args[0], func(s *session.Session) error {
				if err := s.Recover(i); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recovered line %d\n", i+1)
				return nil
			})
		},
	}
}

func newBindCommand(ctx *commandContext) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "bind [topic]",
		Short: "Turn the next transcript run into a line",
		Long: `Bind promotes the next unbound run of the session transcript to a new
line that ends at the playback position given by --at.

Example:
  subedit bind ep-01 --at 0:00:03.250`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			end, err := parseTime(at)
			if err != nil {
				return err
			}
			return ctx.mutateWith(cmd.Context(), args[0], session.FixedClock(end), func(s *session.Session) error {
				l, err := s.Bind()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Bound line %s - %s: %s\n", l.Start, l.End, oneLine(l.Content))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Playback position the new line ends at")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo [topic]",
		Short: "Undo the last edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.mutate(cmd.Context(), args[0], func(s *session.Session) error {
				action, err := s.Undo()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Undid %s\n", action)
				return nil
			})
		},
	}
}

func newRedoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "redo [topic]",
		Short: "Redo the last undone edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.mutate(cmd.Context(), args[0], func(s *session.Session) error {
				action, err := s.Redo()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Redid %s\n", action)
				return nil
			})
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history [topic]",
		Short: "Show the edit history of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := ctx.loadSession(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			entries, index := s.History()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No history")
				return nil
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				state := "applied"
				if e.UndoExecuted {
					state = "undone"
				}
				marker := ""
				if i == index {
					marker = "*"
				}
				rows[i] = []string{strconv.Itoa(i + 1), string(e.Action()), state, marker}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Action", "State", "Current"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
