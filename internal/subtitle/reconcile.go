package subtitle

import (
	"strings"
)

// Reconcile redistributes content over the existing segments, keeping every
// start anchor. The content is consumed from the end: each segment, last to
// first, takes as many characters as its old word had. Characters left over
// once every segment is served are prepended to the first segment, and
// segments left empty are dropped.
//
// A nil slice stays nil. An empty, non-nil slice stays empty even when
// content is not: there is nothing to anchor new text to.
func Reconcile(segments Segments, content string) Segments {
	if segments == nil {
		return nil
	}
	runes := []rune(content)
	out := segments.Clone()
	pos := len(runes)
	for i := len(out) - 1; i >= 0; i-- {
		n := len([]rune(out[i].Word))
		if n > pos {
			n = pos
		}
		out[i].Word = string(runes[pos-n : pos])
		pos -= n
	}
	if pos > 0 && len(out) > 0 {
		out[0].Word = string(runes[:pos]) + out[0].Word
	}
	return prune(out)
}

// ReplaceInSegments replaces every non-overlapping occurrence of target with
// replacement while keeping segment anchors. Within one occurrence the
// replacement characters are handed out in order to the characters of the
// target, whichever segment they sit in; a longer replacement appends its
// excess right after the last target character, a shorter one leaves the
// trailing target characters empty.
func ReplaceInSegments(segments Segments, target, replacement string) Segments {
	if segments == nil {
		return nil
	}
	if target == "" {
		return segments.Clone()
	}
	tr := []rune(target)
	rr := []rune(replacement)
	matches := findMatches([]rune(segments.Text()), tr)
	if len(matches) == 0 {
		return segments.Clone()
	}

	out := make(Segments, 0, len(segments))
	pos, mi := 0, 0
	for _, seg := range segments {
		var sb strings.Builder
		for _, r := range seg.Word {
			p := pos
			pos++
			for mi < len(matches) && p >= matches[mi]+len(tr) {
				mi++
			}
			if mi < len(matches) && p >= matches[mi] {
				k := p - matches[mi]
				if k < len(rr) {
					sb.WriteRune(rr[k])
				}
				if k == len(tr)-1 && len(rr) > len(tr) {
					sb.WriteString(string(rr[len(tr):]))
				}
				continue
			}
			sb.WriteRune(r)
		}
		out = append(out, Segment{Start: seg.Start, Word: sb.String(), Anchor: seg.Anchor})
	}
	return prune(out)
}

// findMatches scans left to right; a consumed match does not re-trigger
// inside itself.
func findMatches(text, target []rune) []int {
	var out []int
	n := len(target)
	for i := 0; i+n <= len(text); {
		if runesEqual(text[i:i+n], target) {
			out = append(out, i)
			i += n
			continue
		}
		i++
	}
	return out
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func prune(segs Segments) Segments {
	out := make(Segments, 0, len(segs))
	for _, s := range segs {
		if s.Word != "" {
			out = append(out, s)
		}
	}
	return out
}
