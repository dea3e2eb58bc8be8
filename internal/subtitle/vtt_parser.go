package subtitle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mgpai22/subedit/internal/timecode"
)

// WebVTT format
type VTTCodec struct{}

const defaultVTTHeader = "WEBVTT"

var vttTimestampRegex = regexp.MustCompile(
	`^\s*(?:(\d+):)?(\d{2}):(\d{2})[.,](\d{1,3})\s*-->\s*(?:(\d+):)?(\d{2}):(\d{2})[.,](\d{1,3})(.*)$`,
)

func (c *VTTCodec) Format() Format {
	return FormatVTT
}

// Decode keeps everything before the first timed block as the header. Each
// later block needs a timing line; a cue with nothing after it decodes as an
// empty line. Cue settings after the end time are kept in Line.Format.
func (c *VTTCodec) Decode(data string, _ Options) (*Subtitle, error) {
	data = normalizeInput(data)
	if !strings.HasPrefix(strings.TrimLeft(data, " \t\n"), defaultVTTHeader) {
		return nil, &ParseError{Format: FormatVTT, Reason: "missing WEBVTT header"}
	}

	lines := strings.Split(data, "\n")
	blocks := splitBlocks(lines)
	sub := &Subtitle{}

	first := -1
	for i, b := range blocks {
		if timingLineIndex(b.lines) >= 0 {
			first = i
			break
		}
	}
	if first < 0 {
		sub.Header = strings.TrimRight(data, "\n")
		return sub, nil
	}
	sub.Header = strings.TrimRight(strings.Join(lines[:blocks[first].first], "\n"), "\n")

	for _, b := range blocks[first:] {
		line, ok := parseVTTBlock(b.lines)
		if !ok {
			continue
		}
		sub.Append(line)
	}
	return sub, nil
}

func timingLineIndex(lines []string) int {
	for i, l := range lines {
		if vttTimestampRegex.MatchString(l) {
			return i
		}
	}
	return -1
}

func parseVTTBlock(lines []string) (*Line, bool) {
	t := timingLineIndex(lines)
	if t < 0 {
		return nil, false
	}
	text := lines[t]
	m := vttTimestampRegex.FindStringSubmatch(text)
	start, err := timecode.FromParts(text, orZero(m[1]), m[2], m[3], m[4])
	if err != nil {
		return nil, false
	}
	end, err := timecode.FromParts(text, orZero(m[5]), m[6], m[7], m[8])
	if err != nil {
		return nil, false
	}
	line := NewLine(start, end, strings.Join(lines[t+1:], "\n"), nil)
	line.Format = strings.TrimSpace(m[9])
	return line, true
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// Encode writes the preserved header (or WEBVTT) and numbered cues.
func (c *VTTCodec) Encode(sub *Subtitle, opts Options) (string, error) {
	var sb strings.Builder

	header := sub.Header
	if strings.TrimSpace(header) == "" {
		header = defaultVTTHeader
	}
	sb.WriteString(header)
	sb.WriteString("\n\n")

	for i, line := range sub.Lines {
		// cue identifier
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00.000 --> 00:00:00.000 [settings]
		sb.WriteString(fmt.Sprintf("%s --> %s",
			formatVTTTime(line.Start, opts.FrameRate),
			formatVTTTime(line.End, opts.FrameRate)))
		if line.Format != "" {
			sb.WriteString(" ")
			sb.WriteString(line.Format)
		}
		sb.WriteString("\n")

		sb.WriteString(line.Content)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func formatVTTTime(ms timecode.Millis, frameRate int) string {
	if frameRate > 0 {
		return timecode.FormatFrames(ms, frameRate, 2, ".")
	}
	return timecode.FormatWith(ms, 2, ".")
}
