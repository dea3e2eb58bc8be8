package transcript

import (
	"strings"
	"unicode/utf8"

	"github.com/mgpai22/subedit/internal/timecode"
)

// recognised word with timing, as returned by a transcription provider
type Word struct {
	Start timecode.Millis `json:"start"`
	End   timecode.Millis `json:"end"`
	Text  string          `json:"text"`
}

// Policy decides where recognised words are broken into lines.
type Policy struct {
	MaxChars    int
	MaxDuration timecode.Millis
}

func DefaultPolicy() Policy {
	return Policy{
		MaxChars:    84, // two lines of 42
		MaxDuration: 7000,
	}
}

// FromWords lays words out as timed spans separated by single spaces. Every
// character of a word, and the space after it, carries the word's start
// time. A line ends after terminal punctuation, or before a word that would
// push the line past MaxChars or MaxDuration.
func FromWords(words []Word, p Policy) *Transcript {
	if p.MaxChars <= 0 || p.MaxDuration <= 0 {
		def := DefaultPolicy()
		if p.MaxChars <= 0 {
			p.MaxChars = def.MaxChars
		}
		if p.MaxDuration <= 0 {
			p.MaxDuration = def.MaxDuration
		}
	}

	var cleaned []Word
	for _, w := range words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text != "" {
			cleaned = append(cleaned, w)
		}
	}

	t := &Transcript{}
	lineChars := 0
	var lineStart timecode.Millis
	for i, w := range cleaned {
		if lineChars == 0 {
			lineStart = w.Start
		}
		start := w.Start
		for _, r := range w.Text {
			t.Spans = append(t.Spans, Span{Char: string(r), Time: &start})
		}
		lineChars += utf8.RuneCountInString(w.Text)

		if i == len(cleaned)-1 || p.breakAfter(w, cleaned[i+1], lineChars, lineStart) {
			t.Spans[len(t.Spans)-1].EndOfLine = true
			lineChars = 0
			continue
		}
		t.Spans = append(t.Spans, Span{Char: " ", Time: &start})
		lineChars++
	}
	return t
}

func (p Policy) breakAfter(w, next Word, lineChars int, lineStart timecode.Millis) bool {
	if endsSentence(w.Text) {
		return true
	}
	// if text is too long, split
	if lineChars+1+utf8.RuneCountInString(next.Text) > p.MaxChars {
		return true
	}
	// if duration is too long, split
	return next.End-lineStart > p.MaxDuration
}

func endsSentence(text string) bool {
	r, _ := utf8.DecodeLastRuneInString(text)
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}
