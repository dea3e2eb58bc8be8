package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/subedit/internal/session"
	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/transcript"
)

func mustOpen(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func newSession(t *testing.T, topic string) *session.Session {
	t.Helper()
	sub := &subtitle.Subtitle{FrameRate: 25, Language: "en"}
	sub.Append(subtitle.NewLine(0, 1000, "hello world", subtitle.Segments{
		{Start: 0, Word: "hello "},
		{Start: 500, Word: "world"},
	}))
	sub.Append(subtitle.NewLine(2000, 3000, "second", subtitle.Segments{}))
	sub.Append(subtitle.NewLine(4000, 5000, "third", nil))

	tr := transcript.FromWords([]transcript.Word{
		{Start: 6000, End: 6400, Text: "more"},
		{Start: 6500, End: 6900, Text: "words."},
	}, transcript.DefaultPolicy())

	s := session.New(sub, tr, session.Options{TopicID: topic, Clock: session.FixedClock(7000)})
	if _, err := s.Edit(0, subtitle.Data{Start: 0, End: 1000, Content: "hi world"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if err := s.Split(2, 2); err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if _, err := s.Bind(); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if _, err := s.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := mustOpen(t, filepath.Join(t.TempDir(), "nested", "sessions.db"))
	s := newSession(t, "topic-a")

	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec, err := st.Load(ctx, "topic-a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.FrameRate != 25 || rec.Language != "en" {
		t.Errorf("unexpected metadata %d %q", rec.FrameRate, rec.Language)
	}
	if len(rec.History) != 3 {
		t.Errorf("expected 3 history entries, got %d", len(rec.History))
	}
	if !rec.History[2].UndoExecuted {
		t.Error("expected last entry to be undone")
	}
	if rec.Base[1].Segments == nil || rec.Base[2].Segments != nil {
		t.Error("expected segment mode to survive storage")
	}

	loaded, err := session.Load(ctx, st, "topic-a", session.Options{})
	if err != nil {
		t.Fatalf("session.Load failed: %v", err)
	}
	if diff := cmp.Diff(s.Subtitle().Snapshots(), loaded.Subtitle().Snapshots()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.Transcript().Spans, loaded.Transcript().Spans); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	if _, err := loaded.Redo(); err != nil {
		t.Fatalf("redo after load failed: %v", err)
	}
	if got := loaded.Subtitle().Len(); got != 5 {
		t.Errorf("expected 5 lines after redoing the bind, got %d", got)
	}
}

func TestSaveReplacesPreviousState(t *testing.T) {
	ctx := context.Background()
	st := mustOpen(t, filepath.Join(t.TempDir(), "sessions.db"))
	s := newSession(t, "topic-b")

	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Delete(0); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	rec, err := st.Load(ctx, "topic-b")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rec.Lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(rec.Lines))
	}
	// the delete prunes the undone bind
	if len(rec.History) != 3 {
		t.Errorf("expected 3 history entries, got %d", len(rec.History))
	}
}

func TestLoadMissing(t *testing.T) {
	st := mustOpen(t, filepath.Join(t.TempDir(), "sessions.db"))
	_, err := st.Load(context.Background(), "missing")
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	st := mustOpen(t, filepath.Join(t.TempDir(), "sessions.db"))
	for _, topic := range []string{"one", "two"} {
		if err := newSession(t, topic).Save(ctx, st); err != nil {
			t.Fatalf("Save %s failed: %v", topic, err)
		}
	}

	summaries, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(summaries))
	}
	for _, sum := range summaries {
		if sum.Lines != 4 || sum.History != 3 {
			t.Errorf("%s: expected 4 lines and 3 entries, got %d and %d", sum.TopicID, sum.Lines, sum.History)
		}
		if sum.UpdatedAt.IsZero() {
			t.Errorf("%s: expected update time", sum.TopicID)
		}
	}

	if err := st.Delete(ctx, "one"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := st.Delete(ctx, "one"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	summaries, err = st.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].TopicID != "two" {
		t.Errorf("expected only topic two, got %+v", summaries)
	}
}

func TestReopenChecksSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := st.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	st.Close()

	_, err = Open(path)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestSaveRejectsEmptyTopic(t *testing.T) {
	st := mustOpen(t, filepath.Join(t.TempDir(), "sessions.db"))
	if err := st.Save(context.Background(), &session.Record{}); err == nil {
		t.Error("expected error for a record without topic")
	}
}
