package subtitle

import (
	"fmt"
	"strings"

	"github.com/asticode/go-astisub"

	"github.com/mgpai22/subedit/internal/timecode"
)

// SSA/ASS and TTML through go-astisub
type AstisubCodec struct {
	format Format
}

func (c *AstisubCodec) Format() Format {
	return c.format
}

// Decode maps every item to a line; item lines are joined with "\n" and
// line items within one item line with a space. Items are sorted by start
// and clipped so they do not overlap.
func (c *AstisubCodec) Decode(data string, _ Options) (*Subtitle, error) {
	r := strings.NewReader(normalizeInput(data))

	var subs *astisub.Subtitles
	var err error
	switch c.format {
	case FormatSSA:
		subs, err = astisub.ReadFromSSA(r)
	case FormatTTML:
		subs, err = astisub.ReadFromTTML(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s", c.format)
	}
	if err != nil {
		return nil, &ParseError{Format: c.format, Reason: "failed to read subtitles", Err: err}
	}
	subs.Order()

	sub := &Subtitle{}
	var prevEnd timecode.Millis
	for _, item := range subs.Items {
		start := timecode.FromDuration(item.StartAt)
		end := timecode.FromDuration(item.EndAt)
		if start < prevEnd {
			start = prevEnd
		}
		if end < start {
			end = start
		}
		sub.Append(NewLine(start, end, itemText(item), nil))
		prevEnd = end
	}
	return sub, nil
}

func itemText(item *astisub.Item) string {
	lines := make([]string, 0, len(item.Lines))
	for _, l := range item.Lines {
		words := make([]string, 0, len(l.Items))
		for _, li := range l.Items {
			words = append(words, li.Text)
		}
		lines = append(lines, strings.Join(words, " "))
	}
	return strings.Join(lines, "\n")
}

// Encode builds an astisub document from the lines and lets the library
// render it.
func (c *AstisubCodec) Encode(sub *Subtitle, _ Options) (string, error) {
	subs := astisub.NewSubtitles()
	for _, line := range sub.Lines {
		item := &astisub.Item{
			StartAt: line.Start.Duration(),
			EndAt:   line.End.Duration(),
		}
		for _, text := range strings.Split(line.Content, "\n") {
			item.Lines = append(item.Lines, astisub.Line{Items: []astisub.LineItem{{Text: text}}})
		}
		subs.Items = append(subs.Items, item)
	}

	var sb strings.Builder
	var err error
	switch c.format {
	case FormatSSA:
		err = subs.WriteToSSA(&sb)
	case FormatTTML:
		err = subs.WriteToTTML(&sb)
	default:
		return "", fmt.Errorf("unsupported format: %s", c.format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", c.format, err)
	}
	return sb.String(), nil
}
