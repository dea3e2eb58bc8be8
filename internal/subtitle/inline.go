package subtitle

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mgpai22/subedit/internal/timecode"
)

// one cue per line: "HH:MM:SS;FF  content"
type InlineCodec struct{}

var inlineLineRegex = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})([;,.])(\d+)\s{2,}(.*)$`)

func (c *InlineCodec) Format() Format {
	return FormatInline
}

// Decode reads one cue per timestamped line. With a frame rate, ";" and ","
// fractions are frame numbers (clamped to the last frame); "." is always
// milliseconds. Lines without a timestamp continue the previous cue. Each
// cue ends where the next one starts and the last one has zero length.
func (c *InlineCodec) Decode(data string, opts Options) (*Subtitle, error) {
	sub := &Subtitle{}
	var current *Line
	for _, text := range strings.Split(normalizeInput(data), "\n") {
		if start, content, ok := parseInlineLine(text, opts.FrameRate); ok {
			current = NewLine(start, start, content, nil)
			sub.Append(current)
			continue
		}
		if current == nil || strings.TrimSpace(text) == "" {
			continue
		}
		current.Content += "\n" + text
	}
	if len(sub.Lines) == 0 {
		return nil, &ParseError{Format: FormatInline, Reason: "input is not a subtitle"}
	}

	for i, line := range sub.Lines {
		line.End = line.Start
		if i+1 < len(sub.Lines) && sub.Lines[i+1].Start > line.Start {
			line.End = sub.Lines[i+1].Start
		}
		line.Original = line.Current()
		line.Saved = line.Current()
	}
	return sub, nil
}

func parseInlineLine(text string, frameRate int) (timecode.Millis, string, bool) {
	m := inlineLineRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	whole, err := timecode.FromParts(text, m[1], m[2], m[3], "")
	if err != nil {
		return 0, "", false
	}
	sep, frac := m[4], m[5]
	if sep != "." && frameRate > 0 {
		frame, err := strconv.Atoi(frac)
		if err != nil {
			return 0, "", false
		}
		return whole + timecode.FromFrame(frame, frameRate), m[6], true
	}
	ms, err := timecode.FractionMillis(frac)
	if err != nil {
		return 0, "", false
	}
	return whole + timecode.Millis(ms), m[6], true
}

// Encode writes "HH:MM:SS;FF  content" with a frame rate and
// "HH:MM:SS.mmm  content" without.
func (c *InlineCodec) Encode(sub *Subtitle, opts Options) (string, error) {
	var sb strings.Builder
	for _, line := range sub.Lines {
		if opts.FrameRate > 0 {
			sb.WriteString(timecode.FormatFrames(line.Start, opts.FrameRate, 2, ";"))
		} else {
			sb.WriteString(timecode.FormatWith(line.Start, 2, "."))
		}
		sb.WriteString("  ")
		sb.WriteString(line.Content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
