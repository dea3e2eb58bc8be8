package subtitle

// position inside a segmented line
type CaretPoint struct {
	Segment int
	Offset  int
}

// selection span; collapsed when Start == End
type Caret struct {
	Start CaretPoint
	End   CaretPoint
}

// EditKind is the key context of a pending edit.
type EditKind int

const (
	EditInsert EditKind = iota
	EditBackspace
	EditDelete
	EditMultiDelete
)

// ComputeCaret places the caret after an edit so it does not jump while
// typing. oldLens and newLens are the rune lengths of the segments before
// and after reconciliation.
//
// Inserts and backspaces land at the old end shifted by the length delta;
// forward deletes collapse onto the old start. The result is collapsed and
// sits at the end of the earlier segment when it falls on a boundary.
func ComputeCaret(old Caret, kind EditKind, oldLens, newLens []int) Caret {
	start := globalOffset(old.Start, oldLens)
	end := globalOffset(old.End, oldLens)
	if end < start {
		start, end = end, start
	}
	total := sum(newLens)
	delta := total - sum(oldLens)

	var g int
	switch kind {
	case EditInsert, EditBackspace:
		g = end + delta
	default:
		g = start
	}
	if g < 0 {
		g = 0
	}
	if g > total {
		g = total
	}
	p := locate(g, newLens)
	return Caret{Start: p, End: p}
}

func globalOffset(p CaretPoint, lens []int) int {
	if len(lens) == 0 {
		return 0
	}
	seg := p.Segment
	if seg < 0 {
		return 0
	}
	if seg >= len(lens) {
		return sum(lens)
	}
	off := p.Offset
	if off < 0 {
		off = 0
	}
	if off > lens[seg] {
		off = lens[seg]
	}
	return sum(lens[:seg]) + off
}

func locate(g int, lens []int) CaretPoint {
	if len(lens) == 0 {
		return CaretPoint{}
	}
	for i, n := range lens {
		if g <= n {
			return CaretPoint{Segment: i, Offset: g}
		}
		g -= n
	}
	last := len(lens) - 1
	return CaretPoint{Segment: last, Offset: lens[last]}
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
