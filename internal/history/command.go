package history

import (
	"errors"
	"fmt"

	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/transcript"
)

// Action tags a command in the persisted log.
type Action string

const (
	ActionCreateLine  Action = "create_line"
	ActionInsertLine  Action = "insert_line"
	ActionDeleteLine  Action = "delete_line"
	ActionUpdateLine  Action = "update_line"
	ActionUpdateLines Action = "update_lines"
	ActionSplitLine   Action = "split_line"
	ActionSelectLine  Action = "select_line"
)

var (
	ErrNothingToDo    = errors.New("command would not change anything")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
	ErrNoTranscript   = errors.New("document has no transcript")
	ErrNoUnboundSpans = errors.New("every transcript span is already bound")
)

// Document is the state commands act on.
type Document struct {
	Subtitle   *subtitle.Subtitle
	Transcript *transcript.Transcript
}

// Command is one reversible mutation. Apply and Revert restore recorded
// values exactly, so Revert followed by Apply reproduces the same state.
// Both either succeed completely or leave the document untouched.
type Command interface {
	Action() Action
	Apply(doc *Document) error
	Revert(doc *Document) error
}

// commands that are executed but never recorded
type transient interface {
	Transient() bool
}

func recorded(cmd Command) bool {
	t, ok := cmd.(transient)
	return !ok || !t.Transient()
}

// newCommand returns an empty payload for action, used when decoding.
func newCommand(action Action) (Command, error) {
	switch action {
	case ActionCreateLine:
		return &CreateLine{}, nil
	case ActionInsertLine:
		return &InsertLine{}, nil
	case ActionDeleteLine:
		return &DeleteLine{}, nil
	case ActionUpdateLine:
		return &UpdateLine{}, nil
	case ActionUpdateLines:
		return &UpdateLines{}, nil
	case ActionSplitLine:
		return &SplitLine{}, nil
	case ActionSelectLine:
		return &SelectLine{}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}
