package history

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/mgpai22/subedit/internal/subtitle"
)

// session runs a mix of commands and leaves the last one undone.
func session(t *testing.T) (*Document, *Stack) {
	t.Helper()
	doc := newDoc()
	s := NewStack()

	update, err := NewUpdateLine(doc, 0, subtitle.Data{Start: 0, End: 1000, Content: "hi world"})
	mustDo(t, s, doc, update, err)
	insert, err := NewInsertLine(doc, 1)
	mustDo(t, s, doc, insert, err)
	shift, err := NewShiftLines(doc, []int{3}, 250)
	mustDo(t, s, doc, shift, err)
	split, err := NewSplitLine(doc, 2, 4)
	mustDo(t, s, doc, split, err)
	del, err := NewDeleteLine(doc, 1)
	mustDo(t, s, doc, del, err)

	if _, err := s.Undo(doc); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	return doc, s
}

func snapshots(doc *Document) []subtitle.Snapshot {
	return doc.Subtitle.Snapshots()
}

func TestJSONReplay(t *testing.T) {
	doc, s := session(t)

	data, err := json.Marshal(s.Entries())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"undoExecuted":true`) {
		t.Errorf("expected undone flag in %s", data)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	fresh := newDoc()
	replayed, warnings := Replay(fresh, entries)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if diff := cmp.Diff(snapshots(doc), snapshots(fresh)); diff != "" {
		t.Errorf("replayed state mismatch (-want +got):\n%s", diff)
	}
	if replayed.Index() != s.Index() || replayed.Len() != s.Len() {
		t.Errorf("expected pointer %d of %d, got %d of %d", s.Index(), s.Len(), replayed.Index(), replayed.Len())
	}

	// redo on both must agree
	if _, err := s.Redo(doc); err != nil {
		t.Fatalf("redo failed: %v", err)
	}
	if _, err := replayed.Redo(fresh); err != nil {
		t.Fatalf("redo on replayed stack failed: %v", err)
	}
	if diff := cmp.Diff(snapshots(doc), snapshots(fresh)); diff != "" {
		t.Errorf("state after redo mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLReplay(t *testing.T) {
	doc, s := session(t)

	data, err := yaml.Marshal(s.Entries())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		t.Fatalf("unmarshal failed: %v\n%s", err, data)
	}
	if len(entries) != s.Len() {
		t.Fatalf("expected %d entries, got %d", s.Len(), len(entries))
	}

	fresh := newDoc()
	replayed, warnings := Replay(fresh, entries)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if diff := cmp.Diff(snapshots(doc), snapshots(fresh)); diff != "" {
		t.Errorf("replayed state mismatch (-want +got):\n%s", diff)
	}
	if replayed.Index() != s.Index() {
		t.Errorf("expected pointer %d, got %d", s.Index(), replayed.Index())
	}
}

func TestSegmentModeSurvivesSerialization(t *testing.T) {
	doc := newDoc()
	doc.Subtitle.Lines[2].Segments = subtitle.Segments{}
	cmd, err := NewDeleteLine(doc, 2)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	plain, err := NewDeleteLine(doc, 1)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	entries := []Entry{{Command: cmd}, {Command: plain}}

	jsonData, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var fromJSON []Entry
	if err := json.Unmarshal(jsonData, &fromJSON); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	yamlData, err := yaml.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var fromYAML []Entry
	if err := yaml.Unmarshal(yamlData, &fromYAML); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for name, decoded := range map[string][]Entry{"json": fromJSON, "yaml": fromYAML} {
		segmented := decoded[0].Command.(*DeleteLine).Line
		if segmented.Segments == nil || len(segmented.Segments) != 0 {
			t.Errorf("%s: expected empty segment list, got %#v", name, segmented.Segments)
		}
		plainLine := decoded[1].Command.(*DeleteLine).Line
		if plainLine.Segments != nil {
			t.Errorf("%s: expected plain line, got %#v", name, plainLine.Segments)
		}
		if diff := cmp.Diff(cmd.Line, segmented); diff != "" {
			t.Errorf("%s: line mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestReplaySkipsBrokenEntries(t *testing.T) {
	doc := newDoc()
	entries := []Entry{
		{Command: &UpdateLine{Index: 7, After: subtitle.Snapshot{Content: "lost"}}},
		{Command: &UpdateLine{
			Index:  2,
			Before: doc.Subtitle.Lines[2].Current(),
			After:  subtitle.Snapshot{Start: 4000, End: 5000, Content: "kept"},
		}},
		{Command: &DeleteLine{Index: 12, Line: subtitle.NewLine(0, 0, "", nil)}},
	}

	s, warnings := Replay(doc, entries)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}
	if warnings[0].Position != 0 || warnings[1].Position != 2 {
		t.Errorf("unexpected warning positions %d, %d", warnings[0].Position, warnings[1].Position)
	}
	var verr *subtitle.ValidationError
	if !errors.As(warnings[0], &verr) {
		t.Errorf("expected warning to wrap a ValidationError, got %v", warnings[0].Err)
	}
	if s.Len() != 1 || s.Index() != 0 {
		t.Errorf("expected 1 executed entry, got %d with index %d", s.Len(), s.Index())
	}
	if doc.Subtitle.Lines[2].Content != "kept" {
		t.Errorf("expected valid entry to apply, got %q", doc.Subtitle.Lines[2].Content)
	}
}

func TestReplayNormalizesUndoneFlags(t *testing.T) {
	doc := newDoc()
	mk := func(content string) Command {
		cmd, err := NewUpdateLine(doc, 2, subtitle.Data{Start: 4000, End: 5000, Content: content})
		if err != nil {
			t.Fatalf("failed to build command: %v", err)
		}
		if err := cmd.Apply(doc); err != nil {
			t.Fatalf("apply failed: %v", err)
		}
		return cmd
	}
	a, b, c := mk("a"), mk("b"), mk("c")

	fresh := newDoc()
	s, warnings := Replay(fresh, []Entry{
		{Command: a, UndoExecuted: true},
		{Command: b},
		{Command: c, UndoExecuted: true},
	})
	if len(warnings) != 1 || warnings[0].Position != 0 {
		t.Fatalf("expected one warning for entry 0, got %v", warnings)
	}
	if s.Index() != 1 || !s.CanRedo() {
		t.Errorf("expected pointer 1 with redo available, got %d", s.Index())
	}
	if got := fresh.Subtitle.Lines[2].Content; got != "b" {
		t.Errorf("expected content b, got %q", got)
	}
	if s.Entries()[0].UndoExecuted {
		t.Error("expected flag on entry 0 to be cleared")
	}
}

type stuckCommand struct{}

func (stuckCommand) Action() Action { return ActionUpdateLine }
func (stuckCommand) Apply(*Document) error { return nil }
func (stuckCommand) Revert(*Document) error { return errors.New("cannot revert") }

func TestReplayReportsLogPositionOnFailedRevert(t *testing.T) {
	doc := newDoc()
	s, warnings := Replay(doc, []Entry{
		{Command: &UpdateLine{Index: 7, After: subtitle.Snapshot{Content: "lost"}}},
		{Command: &DeleteLine{Index: 9, Line: subtitle.NewLine(0, 0, "", nil)}},
		{Command: stuckCommand{}, UndoExecuted: true},
	})
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}
	if got := warnings[2].Position; got != 2 {
		t.Errorf("expected failed revert reported at log position 2, got %d", got)
	}
	if s.Index() != 0 || s.CanRedo() {
		t.Errorf("expected the stuck entry to stay executed, got index %d", s.Index())
	}
}

func TestUnmarshalUnknownAction(t *testing.T) {
	var e Entry
	err := json.Unmarshal([]byte(`{"action":"teleport","data":{},"undoExecuted":false}`), &e)
	if err == nil {
		t.Error("expected error for unknown action")
	}
}
