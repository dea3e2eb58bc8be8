package subtitle

import (
	"strings"

	"github.com/mgpai22/subedit/internal/timecode"
)

// Len is the number of lines.
func (s *Subtitle) Len() int {
	return len(s.Lines)
}

// Line returns the line at index i.
func (s *Subtitle) Line(i int) (*Line, error) {
	if i < 0 || i >= len(s.Lines) {
		return nil, invalid(i, "index out of range (0-%d)", len(s.Lines)-1)
	}
	return s.Lines[i], nil
}

// IndexOf returns the position of the line with the given ID, or -1.
func (s *Subtitle) IndexOf(id string) int {
	for i, l := range s.Lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Append adds l after the last line without re-timing.
func (s *Subtitle) Append(l *Line) {
	s.Lines = append(s.Lines, l)
}

// Insert creates an empty line at position at. It starts at the
// predecessor's end and ends at the successor's start (or the predecessor's
// end when there is no successor), so it never overlaps a neighbour.
func (s *Subtitle) Insert(at int) (*Line, error) {
	l, err := s.Blank(at)
	if err != nil {
		return nil, err
	}
	s.insertAt(at, l)
	return l, nil
}

// Blank builds the empty line Insert would place at position at, without
// inserting it.
func (s *Subtitle) Blank(at int) (*Line, error) {
	if at < 0 || at > len(s.Lines) {
		return nil, invalid(at, "insert position out of range (0-%d)", len(s.Lines))
	}
	var start timecode.Millis
	if at > 0 {
		start = s.Lines[at-1].End
	}
	end := start
	if at < len(s.Lines) {
		end = s.Lines[at].Start
	}
	if end < start {
		return nil, invalid(at, "neighbours overlap (%s > %s)", start, end)
	}
	return NewLine(start, end, "", nil), nil
}

// InsertLine places an existing line at position at, as it is. Used to
// restore deleted lines.
func (s *Subtitle) InsertLine(at int, l *Line) error {
	if at < 0 || at > len(s.Lines) {
		return invalid(at, "insert position out of range (0-%d)", len(s.Lines))
	}
	s.insertAt(at, l)
	return nil
}

func (s *Subtitle) insertAt(at int, l *Line) {
	s.Lines = append(s.Lines, nil)
	copy(s.Lines[at+1:], s.Lines[at:])
	s.Lines[at] = l
}

// Delete removes the line at index i. Neighbours keep their timing.
func (s *Subtitle) Delete(i int) (*Line, error) {
	l, err := s.Line(i)
	if err != nil {
		return nil, err
	}
	s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
	return l, nil
}

// Prepare computes the value line i would have after applying d, without
// mutating anything. Times are clamped against the neighbours, segments
// are reconciled onto the new content and clamped to the new end.
func (s *Subtitle) Prepare(i int, d Data) (Snapshot, error) {
	line, err := s.Line(i)
	if err != nil {
		return Snapshot{}, err
	}
	start, end := d.Start, d.End
	if start < 0 {
		start = 0
	}
	if start > end {
		return Snapshot{}, invalid(i, "start %s is after end %s", start, end)
	}
	if i > 0 && start < s.Lines[i-1].End {
		start = s.Lines[i-1].End
	}
	if i < len(s.Lines)-1 && end > s.Lines[i+1].Start {
		end = s.Lines[i+1].Start
	}
	if start > end {
		return Snapshot{}, invalid(i, "no room between neighbours (%s > %s)", start, end)
	}

	snap := Snapshot{Start: start, End: end, Content: d.Content}
	if line.Segmented() {
		segs := line.Segments.Clone()
		if d.Content != line.Content {
			segs = Reconcile(segs, d.Content)
		}
		snap.Segments = ClampSegments(segs, end)
	}
	return snap, nil
}

// Apply edits line i in place and reports whether it now differs from its
// saved value. On error the line is untouched.
func (s *Subtitle) Apply(i int, d Data) (bool, error) {
	snap, err := s.Prepare(i, d)
	if err != nil {
		return false, err
	}
	line := s.Lines[i]
	line.Restore(snap)
	return line.Edited(), nil
}

// ClampSegments pulls segment starts back so none exceeds end or the start
// of the segment after it.
func ClampSegments(segs Segments, end timecode.Millis) Segments {
	if segs == nil {
		return nil
	}
	out := segs.Clone()
	limit := end
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Start > limit {
			out[i].Start = limit
		}
		limit = out[i].Start
	}
	return out
}

// Validate checks ordering and non-overlap across the whole track.
func (s *Subtitle) Validate() error {
	for i, l := range s.Lines {
		if l.Start > l.End {
			return invalid(i, "start %s is after end %s", l.Start, l.End)
		}
		if i > 0 && l.Start < s.Lines[i-1].End {
			return invalid(i, "starts at %s before previous line ends at %s", l.Start, s.Lines[i-1].End)
		}
		if l.Segmented() && len(l.Segments) > 0 && l.Segments.Text() != l.Content {
			return invalid(i, "segments do not spell the content")
		}
	}
	return nil
}

// Clone deep-copies the track.
func (s *Subtitle) Clone() *Subtitle {
	c := *s
	c.Lines = make([]*Line, len(s.Lines))
	for i, l := range s.Lines {
		c.Lines[i] = l.Clone()
	}
	return &c
}

// Contents returns every line's content, in order.
func (s *Subtitle) Contents() []string {
	out := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Content
	}
	return out
}

// Snapshots returns the current value of every line.
func (s *Subtitle) Snapshots() []Snapshot {
	out := make([]Snapshot, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Current()
	}
	return out
}

// SaveAll advances every line's saved snapshot.
func (s *Subtitle) SaveAll() {
	for _, l := range s.Lines {
		l.Save()
	}
}

// Find returns the indexes of lines whose content contains target.
func (s *Subtitle) Find(target string) []int {
	if target == "" {
		return nil
	}
	var out []int
	for i, l := range s.Lines {
		if strings.Contains(l.Content, target) {
			out = append(out, i)
		}
	}
	return out
}
