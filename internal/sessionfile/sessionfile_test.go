package sessionfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/subedit/internal/session"
	"github.com/mgpai22/subedit/internal/subtitle"
)

func newSession(t *testing.T, topic string) *session.Session {
	t.Helper()
	sub := &subtitle.Subtitle{Header: "WEBVTT - demo", FrameRate: 30}
	sub.Append(subtitle.NewLine(0, 1000, "hello world", subtitle.Segments{
		{Start: 0, Word: "hello "},
		{Start: 500, Word: "world"},
	}))
	sub.Append(subtitle.NewLine(1500, 2500, "", subtitle.Segments{}))
	sub.Append(subtitle.NewLine(3000, 4000, "plain: text", nil))

	s := session.New(sub, nil, session.Options{TopicID: topic})
	if _, err := s.Edit(0, subtitle.Data{Start: 0, End: 1200, Content: "hello there world"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if _, err := s.Replace("plain", "fancy"); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if _, err := s.Undo(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	return s
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := New(filepath.Join(t.TempDir(), "sessions"))
	s := newSession(t, "ep-01")

	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path, err := st.Path("ep-01")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	for _, want := range []string{"topic_id: ep-01", "action: update_line", "undoExecuted: true"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %q in file:\n%s", want, data)
		}
	}

	rec, err := st.Load(ctx, "ep-01")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.Base[1].Segments == nil {
		t.Error("expected empty segment list to stay in segment mode")
	}
	if rec.Base[2].Segments != nil {
		t.Errorf("expected plain line, got %#v", rec.Base[2].Segments)
	}

	loaded, err := session.Load(ctx, st, "ep-01", session.Options{})
	if err != nil {
		t.Fatalf("session.Load failed: %v", err)
	}
	if diff := cmp.Diff(s.Subtitle().Snapshots(), loaded.Subtitle().Snapshots()); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
	if loaded.Subtitle().Header != "WEBVTT - demo" || loaded.Subtitle().FrameRate != 30 {
		t.Errorf("unexpected metadata %q %d", loaded.Subtitle().Header, loaded.Subtitle().FrameRate)
	}
	if !loaded.CanRedo() {
		t.Error("expected undone replace to be redoable")
	}
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load(context.Background(), "nope"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInvalidTopic(t *testing.T) {
	st := New(t.TempDir())
	for _, topic := range []string{"", "../escape", "a/b", ".hidden"} {
		if _, err := st.Path(topic); err == nil {
			t.Errorf("expected error for topic %q", topic)
		}
	}
}

func TestSaveWaitsForLock(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	s := newSession(t, "busy")

	held := flock.New(filepath.Join(dir, "busy.yaml.lock"))
	if err := held.Lock(); err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := s.Save(ctx, st); err == nil {
		t.Fatal("expected save to fail while the lock is held")
	}
	if !s.Subtitle().Lines[0].Edited() {
		t.Error("expected lines to stay dirty after a failed save")
	}

	if err := held.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := s.Save(context.Background(), st); err != nil {
		t.Fatalf("Save after unlock failed: %v", err)
	}
}

func TestTopicsAndDelete(t *testing.T) {
	ctx := context.Background()
	st := New(t.TempDir())
	for _, topic := range []string{"b", "a"} {
		if err := newSession(t, topic).Save(ctx, st); err != nil {
			t.Fatalf("Save %s failed: %v", topic, err)
		}
	}

	topics, err := st.Topics()
	if err != nil {
		t.Fatalf("Topics failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, topics); diff != "" {
		t.Errorf("topics mismatch (-want +got):\n%s", diff)
	}

	if err := st.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := st.Delete("a"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	empty := New(filepath.Join(t.TempDir(), "missing"))
	if topics, err := empty.Topics(); err != nil || len(topics) != 0 {
		t.Errorf("expected no topics, got %v, %v", topics, err)
	}
}
