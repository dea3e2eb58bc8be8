package subtitle

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mgpai22/subedit/internal/timecode"
)

// represents a time-anchored piece of a line's text, usually one word.
// Anchor is the transcript character index for segments bound from
// transcript spans.
type Segment struct {
	Start  timecode.Millis `json:"start" yaml:"start"`
	Word   string          `json:"word" yaml:"word"`
	Anchor int             `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}

// Segments is nil for a plain-text line and non-nil (possibly empty) for a
// line in segment mode.
type Segments []Segment

// MarshalYAML keeps nil and empty apart: nil is written as null.
func (s Segments) MarshalYAML() (interface{}, error) {
	if s == nil {
		return nil, nil
	}
	return []Segment(s), nil
}

// Text concatenates the words.
func (s Segments) Text() string {
	var sb strings.Builder
	for _, seg := range s {
		sb.WriteString(seg.Word)
	}
	return sb.String()
}

// Clone copies the slice, preserving nil.
func (s Segments) Clone() Segments {
	if s == nil {
		return nil
	}
	out := make(Segments, len(s))
	copy(out, s)
	return out
}

// Equal compares two segment lists, treating nil and empty as different.
func (s Segments) Equal(o Segments) bool {
	if (s == nil) != (o == nil) || len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Lengths returns the rune length of every word.
func (s Segments) Lengths() []int {
	lens := make([]int, len(s))
	for i, seg := range s {
		lens[i] = len([]rune(seg.Word))
	}
	return lens
}

// timing and text of a line at one point in its life
type Snapshot struct {
	Start    timecode.Millis `json:"start" yaml:"start"`
	End      timecode.Millis `json:"end" yaml:"end"`
	Content  string          `json:"content" yaml:"content"`
	Segments Segments        `json:"segments" yaml:"segments"`
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	s.Segments = s.Segments.Clone()
	return s
}

// Equal compares timing, content and segments.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.sameText(o) && s.Segments.Equal(o.Segments)
}

func (s Snapshot) sameText(o Snapshot) bool {
	return s.Start == o.Start && s.End == o.End && s.Content == o.Content
}

// represents one subtitle cue
type Line struct {
	ID       string          `json:"id" yaml:"id"`
	Start    timecode.Millis `json:"start" yaml:"start"`
	End      timecode.Millis `json:"end" yaml:"end"`
	Content  string          `json:"content" yaml:"content"`
	Segments Segments        `json:"segments" yaml:"segments"`
	Format   string          `json:"format,omitempty" yaml:"format,omitempty"`

	// as first constructed (import or transcript)
	Original Snapshot `json:"original" yaml:"original"`
	// last externally persisted value
	Saved Snapshot `json:"saved" yaml:"saved"`
}

// Data is the editable part of a line.
type Data struct {
	Start   timecode.Millis
	End     timecode.Millis
	Content string
}

// NewLine builds a line whose original and saved snapshots equal its
// current value. segments may be nil for a plain-text line.
func NewLine(start, end timecode.Millis, content string, segments Segments) *Line {
	l := &Line{
		ID:       uuid.NewString(),
		Start:    start,
		End:      end,
		Content:  content,
		Segments: segments.Clone(),
	}
	l.Original = l.Current()
	l.Saved = l.Current()
	return l
}

// Current returns a copy of the live value.
func (l *Line) Current() Snapshot {
	return Snapshot{
		Start:    l.Start,
		End:      l.End,
		Content:  l.Content,
		Segments: l.Segments.Clone(),
	}
}

// Restore replaces the live value with s exactly, without clamping or
// reconciliation.
func (l *Line) Restore(s Snapshot) {
	l.Start = s.Start
	l.End = s.End
	l.Content = s.Content
	l.Segments = s.Segments.Clone()
}

// Data returns the editable fields.
func (l *Line) Data() Data {
	return Data{Start: l.Start, End: l.End, Content: l.Content}
}

// Segmented reports whether the line is in segment mode.
func (l *Line) Segmented() bool {
	return l.Segments != nil
}

// Edited reports whether content or timing differ from the saved value.
func (l *Line) Edited() bool {
	return !l.Current().sameText(l.Saved)
}

// Save marks the current value as persisted.
func (l *Line) Save() {
	l.Saved = l.Current()
}

// Recovered is the current snapshot with content and segments taken from
// the original.
func (l *Line) Recovered() Snapshot {
	s := l.Current()
	s.Content = l.Original.Content
	s.Segments = l.Original.Segments.Clone()
	return s
}

// Status classifies the line against its snapshots.
func (l *Line) Status() Status {
	current := l.Current()
	switch {
	case current.sameText(l.Original) && current.Segments.Equal(l.Original.Segments):
		return StatusUnchanged
	case l.Edited():
		return StatusEdited
	default:
		return StatusSaved
	}
}

// Clone deep-copies the line, keeping its ID.
func (l *Line) Clone() *Line {
	c := *l
	c.Segments = l.Segments.Clone()
	c.Original = l.Original.Clone()
	c.Saved = l.Saved.Clone()
	return &c
}

// Status of a line relative to its original and saved snapshots
type Status string

const (
	StatusUnchanged Status = "unchanged"
	StatusEdited    Status = "edited"
	StatusSaved     Status = "saved"
)

// represents complete subtitle track
type Subtitle struct {
	Lines     []*Line
	Header    string
	FrameRate int
	WordLimit int
	Language  string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT    Format = "srt"
	FormatVTT    Format = "vtt"
	FormatInline Format = "inline"
	FormatNoTime Format = "notime"
	FormatSSA    Format = "ssa"
	FormatTTML   Format = "ttml"
)
