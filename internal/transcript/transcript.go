package transcript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/timecode"
)

var (
	ErrBound      = errors.New("span is already bound to a line")
	ErrNotBound   = errors.New("span is not bound to this line")
	ErrEmptyRange = errors.New("empty span range")
)

// Span is one character of recognised text. It is either unbound (owned by
// the transcript, LineID empty) or bound to exactly one line.
type Span struct {
	Char      string           `json:"char" yaml:"char"`
	Time      *timecode.Millis `json:"time,omitempty" yaml:"time,omitempty"`
	EndOfLine bool             `json:"eol,omitempty" yaml:"eol,omitempty"`
	LineID    string           `json:"line_id,omitempty" yaml:"line_id,omitempty"`
}

// Bound reports whether a line owns the span.
func (s Span) Bound() bool {
	return s.LineID != ""
}

// raw recognition output as a flat list of character spans
type Transcript struct {
	Spans []Span
}

func New(spans []Span) *Transcript {
	return &Transcript{Spans: spans}
}

// FromText builds an untimed transcript; newlines mark line ends.
func FromText(text string) *Transcript {
	t := &Transcript{}
	t.Insert(0, text)
	return t
}

// Len is the number of spans.
func (t *Transcript) Len() int {
	return len(t.Spans)
}

// Insert adds text as unbound spans before position index and returns the
// new spans. A newline is not stored; it marks the span before it as the
// end of a line.
func (t *Transcript) Insert(index int, text string) []Span {
	if index < 0 {
		index = 0
	}
	if index > len(t.Spans) {
		index = len(t.Spans)
	}

	var added []Span
	for _, r := range strings.ReplaceAll(text, "\r\n", "\n") {
		if r == '\n' {
			switch {
			case len(added) > 0:
				added[len(added)-1].EndOfLine = true
			case index > 0:
				t.Spans[index-1].EndOfLine = true
			}
			continue
		}
		added = append(added, Span{Char: string(r)})
	}

	spans := make([]Span, 0, len(t.Spans)+len(added))
	spans = append(spans, t.Spans[:index]...)
	spans = append(spans, added...)
	spans = append(spans, t.Spans[index:]...)
	t.Spans = spans
	return added
}

// NextRun finds the first unbound span and extends the run through the
// first end-of-line span, stopping early at a bound span or the end of the
// transcript. ok is false when every span is bound.
func (t *Transcript) NextRun() (from, to int, ok bool) {
	from = -1
	for i, s := range t.Spans {
		if !s.Bound() {
			from = i
			break
		}
	}
	if from < 0 {
		return 0, 0, false
	}
	to = from
	for to < len(t.Spans) && !t.Spans[to].Bound() {
		to++
		if t.Spans[to-1].EndOfLine {
			break
		}
	}
	return from, to, true
}

// Bind hands the spans in [from, to) to the line. Either all spans are
// bound or none is.
func (t *Transcript) Bind(from, to int, lineID string) error {
	if err := t.checkRange(from, to); err != nil {
		return err
	}
	for i := from; i < to; i++ {
		if t.Spans[i].Bound() {
			return fmt.Errorf("span %d: %w", i, ErrBound)
		}
	}
	for i := from; i < to; i++ {
		t.Spans[i].LineID = lineID
	}
	return nil
}

// Unbind returns the spans in [from, to) to the transcript. They must all
// be owned by lineID.
func (t *Transcript) Unbind(from, to int, lineID string) error {
	if err := t.checkRange(from, to); err != nil {
		return err
	}
	for i := from; i < to; i++ {
		if t.Spans[i].LineID != lineID {
			return fmt.Errorf("span %d: %w", i, ErrNotBound)
		}
	}
	for i := from; i < to; i++ {
		t.Spans[i].LineID = ""
	}
	return nil
}

func (t *Transcript) checkRange(from, to int) error {
	if from < 0 || to > len(t.Spans) || from > to {
		return fmt.Errorf("span range [%d, %d) out of bounds (0-%d)", from, to, len(t.Spans))
	}
	if from == to {
		return ErrEmptyRange
	}
	return nil
}

// Text concatenates the characters in [from, to).
func (t *Transcript) Text(from, to int) string {
	var sb strings.Builder
	for _, s := range t.Spans[from:to] {
		sb.WriteString(s.Char)
	}
	return sb.String()
}

// Segments derives one segment per span in [from, to), anchored at the
// span's index. A timed span starts at its own time; an untimed one starts
// at lineStart.
func (t *Transcript) Segments(from, to int, lineStart timecode.Millis) subtitle.Segments {
	segs := make(subtitle.Segments, 0, to-from)
	for i := from; i < to; i++ {
		s := t.Spans[i]
		start := lineStart
		if s.Time != nil {
			start = *s.Time
		}
		segs = append(segs, subtitle.Segment{Start: start, Word: s.Char, Anchor: i})
	}
	return segs
}

// BoundTo returns the range of spans owned by lineID.
func (t *Transcript) BoundTo(lineID string) (from, to int, ok bool) {
	from = -1
	for i, s := range t.Spans {
		if s.LineID != lineID {
			if from >= 0 {
				return from, i, true
			}
			continue
		}
		if from < 0 {
			from = i
		}
	}
	if from < 0 {
		return 0, 0, false
	}
	return from, len(t.Spans), true
}

// Unbound counts the spans no line owns.
func (t *Transcript) Unbound() int {
	n := 0
	for _, s := range t.Spans {
		if !s.Bound() {
			n++
		}
	}
	return n
}

// Clone deep-copies the spans.
func (t *Transcript) Clone() *Transcript {
	if t == nil {
		return nil
	}
	spans := make([]Span, len(t.Spans))
	for i, s := range t.Spans {
		if s.Time != nil {
			v := *s.Time
			s.Time = &v
		}
		spans[i] = s
	}
	return &Transcript{Spans: spans}
}
