package session

import (
	"context"
	"errors"
	"time"

	"github.com/mgpai22/subedit/internal/history"
	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/timecode"
	"github.com/mgpai22/subedit/internal/transcript"
)

// ErrNotFound is returned by stores for an unknown topic.
var ErrNotFound = errors.New("session not found")

// Record is the persisted form of a session. Base and Transcript are the
// state before any command ran; replaying History over them rebuilds the
// session. Lines is the current state, kept for consumers that do not
// replay and to detect a log that no longer matches.
type Record struct {
	TopicID    string            `json:"topic_id" yaml:"topic_id"`
	Header     string            `json:"header,omitempty" yaml:"header,omitempty"`
	FrameRate  int               `json:"frame_rate,omitempty" yaml:"frame_rate,omitempty"`
	WordLimit  int               `json:"word_limit,omitempty" yaml:"word_limit,omitempty"`
	Language   string            `json:"language,omitempty" yaml:"language,omitempty"`
	Base       []*subtitle.Line  `json:"base" yaml:"base"`
	Lines      []*subtitle.Line  `json:"lines" yaml:"lines"`
	Transcript []transcript.Span `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	History    []history.Entry   `json:"history" yaml:"history"`
	UpdatedAt  time.Time         `json:"updated_at" yaml:"updated_at"`
}

// Store persists records. Errors are returned to the caller unchanged;
// retrying is up to the store.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, topicID string) (*Record, error)
}

// Clock reports the current playback position.
type Clock interface {
	Now() timecode.Millis
}

// FixedClock always reports the same position.
type FixedClock timecode.Millis

func (c FixedClock) Now() timecode.Millis {
	return timecode.Millis(c)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() timecode.Millis

func (f ClockFunc) Now() timecode.Millis {
	return f()
}

// View is per-line UI state, kept out of the persisted model.
type View struct {
	Selected    bool
	Highlighted bool
}

func cloneLines(lines []*subtitle.Line) []*subtitle.Line {
	out := make([]*subtitle.Line, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}
