package history

import (
	"fmt"
)

// Entry is one recorded command. UndoExecuted is set while the command is
// undone; such entries always sit after the stack pointer.
type Entry struct {
	Command      Command
	UndoExecuted bool
}

// Action returns the tag of the wrapped command.
func (e Entry) Action() Action {
	if e.Command == nil {
		return ""
	}
	return e.Command.Action()
}

// IntegrityWarning reports a logged entry that could not be replayed. The
// entry is dropped and replay continues.
type IntegrityWarning struct {
	Position int
	Action   Action
	Err      error
}

func (w *IntegrityWarning) Error() string {
	return fmt.Sprintf("history entry %d (%s) skipped: %v", w.Position, w.Action, w.Err)
}

func (w *IntegrityWarning) Unwrap() error {
	return w.Err
}

// Stack is a linear undo log. Entries up to Index are executed; entries
// after it are undone and can be redone until the next Do prunes them.
// A Stack is not safe for concurrent use.
type Stack struct {
	entries []Entry
	index   int
}

func NewStack() *Stack {
	return &Stack{index: -1}
}

// Do applies cmd and records it. Undone entries are discarded first. A
// failing command records nothing and leaves doc untouched; transient
// commands are applied but not recorded.
func (s *Stack) Do(doc *Document, cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("nil command")
	}
	if err := cmd.Apply(doc); err != nil {
		return err
	}
	if !recorded(cmd) {
		return nil
	}
	s.entries = append(s.entries[:s.index+1], Entry{Command: cmd})
	s.index = len(s.entries) - 1
	return nil
}

// Undo reverts the entry at the pointer and moves the pointer back.
func (s *Stack) Undo(doc *Document) (Action, error) {
	for s.index >= 0 && s.entries[s.index].UndoExecuted {
		s.index--
	}
	if s.index < 0 {
		return "", ErrNothingToUndo
	}
	e := &s.entries[s.index]
	if err := e.Command.Revert(doc); err != nil {
		return "", fmt.Errorf("failed to undo %s: %w", e.Action(), err)
	}
	e.UndoExecuted = true
	s.index--
	return e.Action(), nil
}

// Redo re-applies the entry just past the pointer.
func (s *Stack) Redo(doc *Document) (Action, error) {
	if !s.CanRedo() {
		return "", ErrNothingToRedo
	}
	e := &s.entries[s.index+1]
	if err := e.Command.Apply(doc); err != nil {
		return "", fmt.Errorf("failed to redo %s: %w", e.Action(), err)
	}
	e.UndoExecuted = false
	s.index++
	return e.Action(), nil
}

func (s *Stack) CanUndo() bool {
	return s.index >= 0
}

func (s *Stack) CanRedo() bool {
	return s.index+1 < len(s.entries)
}

// Index is the position of the last executed entry, -1 when none.
func (s *Stack) Index() int {
	return s.index
}

// Len is the number of recorded entries, undone ones included.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the log for persistence.
func (s *Stack) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Replay rebuilds a stack from a persisted log by applying every entry to
// doc in order, then reverting the trailing undone entries newest first so
// the pointer ends where it was saved. An undone flag that is not part of
// the trailing run is cleared. Entries that fail to apply are dropped and
// reported; replay never aborts.
func Replay(doc *Document, entries []Entry) (*Stack, []*IntegrityWarning) {
	s := NewStack()
	var warnings []*IntegrityWarning

	// log position of each kept entry
	var positions []int

	undoneFrom := len(entries)
	for undoneFrom > 0 && entries[undoneFrom-1].UndoExecuted {
		undoneFrom--
	}

	for pos, e := range entries {
		if e.Command == nil {
			warnings = append(warnings, &IntegrityWarning{Position: pos, Err: fmt.Errorf("missing command")})
			continue
		}
		if !recorded(e.Command) {
			continue
		}
		if e.UndoExecuted && pos < undoneFrom {
			warnings = append(warnings, &IntegrityWarning{
				Position: pos,
				Action:   e.Action(),
				Err:      fmt.Errorf("undone entry before executed entries, treated as executed"),
			})
		}
		if err := e.Command.Apply(doc); err != nil {
			warnings = append(warnings, &IntegrityWarning{Position: pos, Action: e.Action(), Err: err})
			continue
		}
		s.entries = append(s.entries, Entry{Command: e.Command, UndoExecuted: pos >= undoneFrom})
		positions = append(positions, pos)
	}

	s.index = len(s.entries) - 1
	for s.index >= 0 && s.entries[s.index].UndoExecuted {
		e := &s.entries[s.index]
		if err := e.Command.Revert(doc); err != nil {
			warnings = append(warnings, &IntegrityWarning{Position: positions[s.index], Action: e.Action(), Err: err})
			for k := 0; k <= s.index; k++ {
				s.entries[k].UndoExecuted = false
			}
			break
		}
		s.index--
	}
	return s, warnings
}
