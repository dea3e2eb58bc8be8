package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/timecode"
)

func invalid(index int, format string, args ...any) error {
	return &subtitle.ValidationError{Index: index, Reason: fmt.Sprintf(format, args...)}
}

// lineWithID fetches line i and checks it is the expected line.
func lineWithID(sub *subtitle.Subtitle, i int, id string) (*subtitle.Line, error) {
	l, err := sub.Line(i)
	if err != nil {
		return nil, err
	}
	if id != "" && l.ID != id {
		return nil, invalid(i, "line %s expected, found %s", id, l.ID)
	}
	return l, nil
}

// CreateLine promotes the next unbound transcript run to a line appended
// after the last one.
type CreateLine struct {
	Index int            `json:"index" yaml:"index"`
	From  int            `json:"from" yaml:"from"`
	To    int            `json:"to" yaml:"to"`
	Line  *subtitle.Line `json:"line" yaml:"line"`
}

// NewCreateLine builds the line for the next unbound run. It starts where
// the previous line ends (or at zero) and ends at end, the playback time,
// which is raised to the start if it lies before it. Segments come from
// the spans and are kept within the line.
func NewCreateLine(doc *Document, end timecode.Millis) (*CreateLine, error) {
	if doc.Transcript == nil {
		return nil, ErrNoTranscript
	}
	from, to, ok := doc.Transcript.NextRun()
	if !ok {
		return nil, ErrNoUnboundSpans
	}

	sub := doc.Subtitle
	at := sub.Len()
	var start timecode.Millis
	if at > 0 {
		start = sub.Lines[at-1].End
	}
	if end < start {
		end = start
	}

	segs := doc.Transcript.Segments(from, to, start)
	for i := range segs {
		segs[i].Start = segs[i].Start.Clamp(start, end)
	}
	line := subtitle.NewLine(start, end, doc.Transcript.Text(from, to), subtitle.ClampSegments(segs, end))
	return &CreateLine{Index: at, From: from, To: to, Line: line}, nil
}

func (c *CreateLine) Action() Action { return ActionCreateLine }

func (c *CreateLine) Apply(doc *Document) error {
	if doc.Transcript == nil {
		return ErrNoTranscript
	}
	if c.Index < 0 || c.Index > doc.Subtitle.Len() {
		return invalid(c.Index, "insert position out of range (0-%d)", doc.Subtitle.Len())
	}
	if err := doc.Transcript.Bind(c.From, c.To, c.Line.ID); err != nil {
		return fmt.Errorf("failed to bind spans: %w", err)
	}
	if err := doc.Subtitle.InsertLine(c.Index, c.Line.Clone()); err != nil {
		_ = doc.Transcript.Unbind(c.From, c.To, c.Line.ID)
		return err
	}
	return nil
}

// Revert removes the line and hands its spans back to the transcript.
func (c *CreateLine) Revert(doc *Document) error {
	if doc.Transcript == nil {
		return ErrNoTranscript
	}
	if _, err := lineWithID(doc.Subtitle, c.Index, c.Line.ID); err != nil {
		return err
	}
	if err := doc.Transcript.Unbind(c.From, c.To, c.Line.ID); err != nil {
		return fmt.Errorf("failed to unbind spans: %w", err)
	}
	_, err := doc.Subtitle.Delete(c.Index)
	return err
}

// InsertLine adds an empty line between its neighbours.
type InsertLine struct {
	Index int            `json:"index" yaml:"index"`
	Line  *subtitle.Line `json:"line" yaml:"line"`
}

func NewInsertLine(doc *Document, at int) (*InsertLine, error) {
	line, err := doc.Subtitle.Blank(at)
	if err != nil {
		return nil, err
	}
	return &InsertLine{Index: at, Line: line}, nil
}

func (c *InsertLine) Action() Action { return ActionInsertLine }

func (c *InsertLine) Apply(doc *Document) error {
	return doc.Subtitle.InsertLine(c.Index, c.Line.Clone())
}

func (c *InsertLine) Revert(doc *Document) error {
	if _, err := lineWithID(doc.Subtitle, c.Index, c.Line.ID); err != nil {
		return err
	}
	_, err := doc.Subtitle.Delete(c.Index)
	return err
}

// DeleteLine removes a line and keeps a full copy to restore it.
type DeleteLine struct {
	Index int            `json:"index" yaml:"index"`
	Line  *subtitle.Line `json:"line" yaml:"line"`
}

func NewDeleteLine(doc *Document, i int) (*DeleteLine, error) {
	l, err := doc.Subtitle.Line(i)
	if err != nil {
		return nil, err
	}
	return &DeleteLine{Index: i, Line: l.Clone()}, nil
}

func (c *DeleteLine) Action() Action { return ActionDeleteLine }

// Apply checks the index only: a replayed log may run against a freshly
// decoded track whose line ids differ.
func (c *DeleteLine) Apply(doc *Document) error {
	_, err := doc.Subtitle.Delete(c.Index)
	return err
}

func (c *DeleteLine) Revert(doc *Document) error {
	return doc.Subtitle.InsertLine(c.Index, c.Line.Clone())
}

// UpdateLine replaces the timing, content and segments of one line.
type UpdateLine struct {
	Index  int               `json:"index" yaml:"index"`
	Before subtitle.Snapshot `json:"before" yaml:"before"`
	After  subtitle.Snapshot `json:"after" yaml:"after"`
}

// NewUpdateLine validates d against the neighbours and reconciles segments.
func NewUpdateLine(doc *Document, i int, d subtitle.Data) (*UpdateLine, error) {
	after, err := doc.Subtitle.Prepare(i, d)
	if err != nil {
		return nil, err
	}
	before := doc.Subtitle.Lines[i].Current()
	if before.Equal(after) {
		return nil, ErrNothingToDo
	}
	return &UpdateLine{Index: i, Before: before, After: after}, nil
}

// NewRecoverLine restores the original content and segments of line i,
// keeping its current timing.
func NewRecoverLine(doc *Document, i int) (*UpdateLine, error) {
	l, err := doc.Subtitle.Line(i)
	if err != nil {
		return nil, err
	}
	after := l.Recovered()
	after.Segments = subtitle.ClampSegments(after.Segments, after.End)
	before := l.Current()
	if before.Equal(after) {
		return nil, ErrNothingToDo
	}
	return &UpdateLine{Index: i, Before: before, After: after}, nil
}

func (c *UpdateLine) Action() Action { return ActionUpdateLine }

func (c *UpdateLine) Apply(doc *Document) error {
	l, err := doc.Subtitle.Line(c.Index)
	if err != nil {
		return err
	}
	l.Restore(c.After)
	return nil
}

func (c *UpdateLine) Revert(doc *Document) error {
	l, err := doc.Subtitle.Line(c.Index)
	if err != nil {
		return err
	}
	l.Restore(c.Before)
	return nil
}

// Change is one line's before and after value inside UpdateLines.
type Change struct {
	Index  int               `json:"index" yaml:"index"`
	Before subtitle.Snapshot `json:"before" yaml:"before"`
	After  subtitle.Snapshot `json:"after" yaml:"after"`
}

// UpdateLines changes several lines at once (bulk shift, bulk replace).
type UpdateLines struct {
	Changes []Change `json:"changes" yaml:"changes"`
}

// NewShiftLines moves the given lines, and their segments, by delta. With
// no indexes every line moves. The shifted track must still be ordered.
func NewShiftLines(doc *Document, indexes []int, delta timecode.Millis) (*UpdateLines, error) {
	if delta == 0 {
		return nil, ErrNothingToDo
	}
	sub := doc.Subtitle
	if len(indexes) == 0 {
		indexes = make([]int, sub.Len())
		for i := range indexes {
			indexes[i] = i
		}
	}

	candidate := sub.Clone()
	changes := make([]Change, 0, len(indexes))
	seen := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		l, err := candidate.Line(i)
		if err != nil {
			return nil, err
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		if l.Start+delta < 0 {
			return nil, invalid(i, "shift by %dms moves start before zero", delta)
		}
		before := l.Current()
		l.Start += delta
		l.End += delta
		for k := range l.Segments {
			l.Segments[k].Start = (l.Segments[k].Start + delta).Clamp(0, l.End)
		}
		changes = append(changes, Change{Index: i, Before: before, After: l.Current()})
	}
	if len(changes) == 0 {
		return nil, ErrNothingToDo
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	return &UpdateLines{Changes: changes}, nil
}

// NewReplace replaces every occurrence of target in every line, keeping
// segment anchors.
func NewReplace(doc *Document, target, replacement string) (*UpdateLines, error) {
	if target == "" || target == replacement {
		return nil, ErrNothingToDo
	}
	var changes []Change
	for _, i := range doc.Subtitle.Find(target) {
		l := doc.Subtitle.Lines[i]
		before := l.Current()
		after := l.Current()
		after.Content = strings.ReplaceAll(l.Content, target, replacement)
		if l.Segmented() {
			after.Segments = subtitle.ReplaceInSegments(l.Segments, target, replacement)
		}
		changes = append(changes, Change{Index: i, Before: before, After: after})
	}
	if len(changes) == 0 {
		return nil, ErrNothingToDo
	}
	return &UpdateLines{Changes: changes}, nil
}

// NewRewriteLines sets the content of each indexed line, keeping its timing
// and reconciling its segments. Lines whose content is unchanged are skipped.
func NewRewriteLines(doc *Document, contents map[int]string) (*UpdateLines, error) {
	indexes := make([]int, 0, len(contents))
	for i := range contents {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var changes []Change
	for _, i := range indexes {
		l, err := doc.Subtitle.Line(i)
		if err != nil {
			return nil, err
		}
		d := l.Data()
		d.Content = contents[i]
		after, err := doc.Subtitle.Prepare(i, d)
		if err != nil {
			return nil, err
		}
		before := l.Current()
		if before.Equal(after) {
			continue
		}
		changes = append(changes, Change{Index: i, Before: before, After: after})
	}
	if len(changes) == 0 {
		return nil, ErrNothingToDo
	}
	return &UpdateLines{Changes: changes}, nil
}

func (c *UpdateLines) Action() Action { return ActionUpdateLines }

func (c *UpdateLines) Apply(doc *Document) error {
	lines, err := c.lines(doc)
	if err != nil {
		return err
	}
	for k, ch := range c.Changes {
		lines[k].Restore(ch.After)
	}
	return nil
}

func (c *UpdateLines) Revert(doc *Document) error {
	lines, err := c.lines(doc)
	if err != nil {
		return err
	}
	for k := len(c.Changes) - 1; k >= 0; k-- {
		lines[k].Restore(c.Changes[k].Before)
	}
	return nil
}

func (c *UpdateLines) lines(doc *Document) ([]*subtitle.Line, error) {
	lines := make([]*subtitle.Line, len(c.Changes))
	for k, ch := range c.Changes {
		l, err := doc.Subtitle.Line(ch.Index)
		if err != nil {
			return nil, err
		}
		lines[k] = l
	}
	return lines, nil
}

// SplitLine cuts one line in two at a character offset.
type SplitLine struct {
	Index  int            `json:"index" yaml:"index"`
	Before *subtitle.Line `json:"before" yaml:"before"`
	First  *subtitle.Line `json:"first" yaml:"first"`
	Second *subtitle.Line `json:"second" yaml:"second"`
}

// NewSplitLine splits line i before the rune at offset. In segment mode the
// cut time is the start of the segment holding that rune, and a segment cut
// in half keeps its anchor on both sides. A plain line is cut in
// proportion to the offset.
func NewSplitLine(doc *Document, i, offset int) (*SplitLine, error) {
	l, err := doc.Subtitle.Line(i)
	if err != nil {
		return nil, err
	}
	runes := []rune(l.Content)
	if offset <= 0 || offset >= len(runes) {
		return nil, invalid(i, "split offset %d outside content (1-%d)", offset, len(runes)-1)
	}

	var at timecode.Millis
	var head, tail subtitle.Segments
	if len(l.Segments) > 0 {
		head, tail, at = splitSegments(l.Segments, offset)
	} else {
		at = l.Start + (l.End-l.Start)*timecode.Millis(offset)/timecode.Millis(len(runes))
		if l.Segments != nil {
			head, tail = subtitle.Segments{}, subtitle.Segments{}
		}
	}
	at = at.Clamp(l.Start, l.End)

	first := l.Clone()
	first.Restore(subtitle.Snapshot{
		Start:    l.Start,
		End:      at,
		Content:  string(runes[:offset]),
		Segments: subtitle.ClampSegments(head, at),
	})
	second := subtitle.NewLine(at, l.End, string(runes[offset:]), tail)
	second.Format = l.Format
	return &SplitLine{Index: i, Before: l.Clone(), First: first, Second: second}, nil
}

func splitSegments(segs subtitle.Segments, offset int) (head, tail subtitle.Segments, at timecode.Millis) {
	head, tail = subtitle.Segments{}, subtitle.Segments{}
	pos := 0
	for _, s := range segs {
		word := []rune(s.Word)
		switch {
		case pos+len(word) <= offset:
			head = append(head, s)
		case pos >= offset:
			if len(tail) == 0 {
				at = s.Start
			}
			tail = append(tail, s)
		default:
			cut := offset - pos
			head = append(head, subtitle.Segment{Start: s.Start, Word: string(word[:cut]), Anchor: s.Anchor})
			tail = append(tail, subtitle.Segment{Start: s.Start, Word: string(word[cut:]), Anchor: s.Anchor})
			at = s.Start
		}
		pos += len(word)
	}
	return head, tail, at
}

func (c *SplitLine) Action() Action { return ActionSplitLine }

func (c *SplitLine) Apply(doc *Document) error {
	if _, err := doc.Subtitle.Line(c.Index); err != nil {
		return err
	}
	doc.Subtitle.Lines[c.Index] = c.First.Clone()
	return doc.Subtitle.InsertLine(c.Index+1, c.Second.Clone())
}

func (c *SplitLine) Revert(doc *Document) error {
	if _, err := lineWithID(doc.Subtitle, c.Index+1, c.Second.ID); err != nil {
		return err
	}
	if _, err := doc.Subtitle.Delete(c.Index + 1); err != nil {
		return err
	}
	doc.Subtitle.Lines[c.Index] = c.Before.Clone()
	return nil
}

// SelectLine marks a line as selected. It touches view state only and is
// never recorded.
type SelectLine struct {
	Index int `json:"index" yaml:"index"`
}

func (c *SelectLine) Action() Action { return ActionSelectLine }

func (c *SelectLine) Apply(doc *Document) error {
	_, err := doc.Subtitle.Line(c.Index)
	return err
}

func (c *SelectLine) Revert(*Document) error { return nil }

func (c *SelectLine) Transient() bool { return true }
