package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/subedit/internal/history"
	"github.com/mgpai22/subedit/internal/logging"
	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/timecode"
	"github.com/mgpai22/subedit/internal/transcript"
)

// Options configure a session. Zero values give a fresh topic id, a clock
// stuck at zero and a discarding logger.
type Options struct {
	TopicID string
	Clock   Clock
	Logger  *logging.Logger
}

// Session is one editing session over a subtitle track and its optional
// transcript. Every mutation goes through the history stack. A Session is
// not safe for concurrent use.
type Session struct {
	topicID string
	doc     *history.Document
	stack   *history.Stack

	base           []*subtitle.Line
	baseTranscript []transcript.Span

	views  map[string]View
	clock  Clock
	logger *logging.Logger
}

// New starts a session on sub and tr. Their current state becomes the base
// that the history log is replayed over. tr may be nil.
func New(sub *subtitle.Subtitle, tr *transcript.Transcript, opts Options) *Session {
	s := newSession(opts)
	s.doc = &history.Document{Subtitle: sub, Transcript: tr}
	s.stack = history.NewStack()
	s.base = cloneLines(sub.Lines)
	if tr != nil {
		s.baseTranscript = tr.Clone().Spans
	}
	return s
}

func newSession(opts Options) *Session {
	s := &Session{
		topicID: opts.TopicID,
		views:   make(map[string]View),
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if s.topicID == "" {
		s.topicID = uuid.NewString()
	}
	if s.clock == nil {
		s.clock = FixedClock(0)
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	return s
}

// Load rebuilds a session by replaying the stored log over the stored base.
// Entries that cannot be replayed are logged and dropped.
func Load(ctx context.Context, store Store, topicID string, opts Options) (*Session, error) {
	rec, err := store.Load(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", topicID, err)
	}
	opts.TopicID = rec.TopicID
	s := FromRecord(rec, opts)
	return s, nil
}

// FromRecord replays rec without touching a store.
func FromRecord(rec *Record, opts Options) *Session {
	if opts.TopicID == "" {
		opts.TopicID = rec.TopicID
	}
	s := newSession(opts)
	s.base = cloneLines(rec.Base)

	sub := &subtitle.Subtitle{
		Lines:     cloneLines(rec.Base),
		Header:    rec.Header,
		FrameRate: rec.FrameRate,
		WordLimit: rec.WordLimit,
		Language:  rec.Language,
	}
	var tr *transcript.Transcript
	if rec.Transcript != nil {
		tr = transcript.New(rec.Transcript).Clone()
		s.baseTranscript = tr.Clone().Spans
	}
	s.doc = &history.Document{Subtitle: sub, Transcript: tr}

	stack, warnings := history.Replay(s.doc, rec.History)
	s.stack = stack
	for _, w := range warnings {
		s.logger.Warnw("Skipped history entry",
			"topic", s.topicID,
			"position", w.Position,
			"action", string(w.Action),
			"error", w.Err,
		)
	}
	if rec.Lines != nil && !sameSnapshots(sub.Lines, rec.Lines) {
		s.logger.Warnw("Replayed lines differ from saved lines",
			"topic", s.topicID,
			"replayed", len(sub.Lines),
			"saved", len(rec.Lines),
		)
	}
	sub.SaveAll()

	s.logger.Debugw("Loaded session",
		"topic", s.topicID,
		"lines", sub.Len(),
		"history", stack.Len(),
		"index", stack.Index(),
	)
	return s
}

func sameSnapshots(a, b []*subtitle.Line) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Current().Equal(b[i].Current()) {
			return false
		}
	}
	return true
}

// Record captures the session for persistence.
func (s *Session) Record() *Record {
	sub := s.doc.Subtitle
	rec := &Record{
		TopicID:   s.topicID,
		Header:    sub.Header,
		FrameRate: sub.FrameRate,
		WordLimit: sub.WordLimit,
		Language:  sub.Language,
		Base:      cloneLines(s.base),
		Lines:     cloneLines(sub.Lines),
		History:   s.stack.Entries(),
		UpdatedAt: time.Now().UTC(),
	}
	if s.baseTranscript != nil {
		rec.Transcript = transcript.New(s.baseTranscript).Clone().Spans
	}
	return rec
}

// Save hands the current lines and log to store and, on success, marks
// every line as saved. Cancelling ctx aborts the store call only.
func (s *Session) Save(ctx context.Context, store Store) error {
	rec := s.Record()
	if err := store.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.topicID, err)
	}
	s.doc.Subtitle.SaveAll()
	s.logger.Infow("Saved session",
		"topic", s.topicID,
		"lines", len(rec.Lines),
		"history", len(rec.History),
	)
	return nil
}

func (s *Session) TopicID() string {
	return s.topicID
}

func (s *Session) Subtitle() *subtitle.Subtitle {
	return s.doc.Subtitle
}

func (s *Session) Transcript() *transcript.Transcript {
	return s.doc.Transcript
}

// Edit changes the timing and content of line i and reports whether the
// line now differs from its saved value. An edit that changes nothing is
// not recorded.
func (s *Session) Edit(i int, d subtitle.Data) (bool, error) {
	cmd, err := history.NewUpdateLine(s.doc, i, d)
	if errors.Is(err, history.ErrNothingToDo) {
		return s.doc.Subtitle.Lines[i].Edited(), nil
	}
	if err != nil {
		return false, err
	}
	if err := s.do(cmd); err != nil {
		return false, err
	}
	return s.doc.Subtitle.Lines[i].Edited(), nil
}

// Type replaces the content of line i as a live keystroke edit and returns
// where the caret lands in the reconciled segments.
func (s *Session) Type(i int, content string, caret subtitle.Caret, kind subtitle.EditKind) (subtitle.Caret, error) {
	l, err := s.doc.Subtitle.Line(i)
	if err != nil {
		return caret, err
	}
	oldLens := l.Segments.Lengths()
	d := l.Data()
	d.Content = content
	if _, err := s.Edit(i, d); err != nil {
		return caret, err
	}
	return subtitle.ComputeCaret(caret, kind, oldLens, l.Segments.Lengths()), nil
}

// Insert adds an empty line at position at.
func (s *Session) Insert(at int) (*subtitle.Line, error) {
	cmd, err := history.NewInsertLine(s.doc, at)
	if err != nil {
		return nil, err
	}
	if err := s.do(cmd); err != nil {
		return nil, err
	}
	return s.doc.Subtitle.Lines[at], nil
}

// Delete removes line i.
func (s *Session) Delete(i int) error {
	cmd, err := history.NewDeleteLine(s.doc, i)
	if err != nil {
		return err
	}
	if err := s.do(cmd); err != nil {
		return err
	}
	delete(s.views, cmd.Line.ID)
	return nil
}

// Shift moves the given lines by delta; no indexes moves every line.
func (s *Session) Shift(indexes []int, delta timecode.Millis) error {
	cmd, err := history.NewShiftLines(s.doc, indexes, delta)
	if errors.Is(err, history.ErrNothingToDo) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.do(cmd)
}

// Replace substitutes target in every line and returns how many lines
// changed.
func (s *Session) Replace(target, replacement string) (int, error) {
	cmd, err := history.NewReplace(s.doc, target, replacement)
	if errors.Is(err, history.ErrNothingToDo) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := s.do(cmd); err != nil {
		return 0, err
	}
	return len(cmd.Changes), nil
}

// Rewrite sets the content of several lines as one undoable edit and
// returns how many lines changed.
func (s *Session) Rewrite(contents map[int]string) (int, error) {
	cmd, err := history.NewRewriteLines(s.doc, contents)
	if errors.Is(err, history.ErrNothingToDo) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := s.do(cmd); err != nil {
		return 0, err
	}
	return len(cmd.Changes), nil
}

// Recover restores the original content of line i as an undoable edit.
func (s *Session) Recover(i int) error {
	cmd, err := history.NewRecoverLine(s.doc, i)
	if errors.Is(err, history.ErrNothingToDo) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.do(cmd)
}

// Split cuts line i before the rune at offset.
func (s *Session) Split(i, offset int) error {
	cmd, err := history.NewSplitLine(s.doc, i, offset)
	if err != nil {
		return err
	}
	return s.do(cmd)
}

// Bind promotes the next unbound transcript run to a line ending at the
// current playback time.
func (s *Session) Bind() (*subtitle.Line, error) {
	cmd, err := history.NewCreateLine(s.doc, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.do(cmd); err != nil {
		return nil, err
	}
	return s.doc.Subtitle.Lines[cmd.Index], nil
}

// Select marks line i as the only selected line.
func (s *Session) Select(i int) error {
	if err := s.stack.Do(s.doc, &history.SelectLine{Index: i}); err != nil {
		return err
	}
	id := s.doc.Subtitle.Lines[i].ID
	for k, v := range s.views {
		v.Selected = false
		s.views[k] = v
	}
	v := s.views[id]
	v.Selected = true
	s.views[id] = v
	return nil
}

// Highlight marks the line under the playback position and returns its
// index, or -1 when no line covers it.
func (s *Session) Highlight() int {
	now := s.clock.Now()
	found := -1
	for i, l := range s.doc.Subtitle.Lines {
		on := found < 0 && l.Start <= now && now < l.End
		if on {
			found = i
		}
		v := s.views[l.ID]
		v.Highlighted = on
		s.views[l.ID] = v
	}
	return found
}

// View returns the UI state of a line.
func (s *Session) View(lineID string) View {
	return s.views[lineID]
}

func (s *Session) Undo() (history.Action, error) {
	action, err := s.stack.Undo(s.doc)
	if err != nil {
		return "", err
	}
	s.logger.Debugw("Undo", "action", string(action), "index", s.stack.Index())
	return action, nil
}

func (s *Session) Redo() (history.Action, error) {
	action, err := s.stack.Redo(s.doc)
	if err != nil {
		return "", err
	}
	s.logger.Debugw("Redo", "action", string(action), "index", s.stack.Index())
	return action, nil
}

func (s *Session) CanUndo() bool { return s.stack.CanUndo() }

func (s *Session) CanRedo() bool { return s.stack.CanRedo() }

// History returns the log and the stack pointer.
func (s *Session) History() ([]history.Entry, int) {
	return s.stack.Entries(), s.stack.Index()
}

// Export encodes the current lines.
func (s *Session) Export(format subtitle.Format, opts subtitle.Options) (string, error) {
	if opts.FrameRate == 0 {
		opts.FrameRate = s.doc.Subtitle.FrameRate
	}
	return subtitle.Encode(format, s.doc.Subtitle, opts)
}

func (s *Session) do(cmd history.Command) error {
	if err := s.stack.Do(s.doc, cmd); err != nil {
		return err
	}
	s.logger.Debugw("Applied command", "action", string(cmd.Action()), "index", s.stack.Index())
	return nil
}
