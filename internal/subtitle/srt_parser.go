package subtitle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mgpai22/subedit/internal/timecode"
)

// SubRip format
type SRTCodec struct{}

var srtTimestampRegex = regexp.MustCompile(
	`(\d+):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{1,3})`,
)

func (c *SRTCodec) Format() Format {
	return FormatSRT
}

// Decode reads SRT cue blocks. The index line is optional, content lines
// are concatenated as they are, and blocks without a valid timing line are
// skipped.
func (c *SRTCodec) Decode(data string, _ Options) (*Subtitle, error) {
	sub := &Subtitle{}
	lines := strings.Split(normalizeInput(data), "\n")
	for _, b := range splitBlocks(lines) {
		line, ok := parseSRTBlock(b.lines)
		if !ok {
			continue
		}
		sub.Append(line)
	}
	return sub, nil
}

func parseSRTBlock(lines []string) (*Line, bool) {
	for i, text := range lines {
		matches := srtTimestampRegex.FindStringSubmatch(text)
		if len(matches) != 9 {
			continue
		}
		start, err := timecode.FromParts(text, matches[1], matches[2], matches[3], matches[4])
		if err != nil {
			return nil, false
		}
		end, err := timecode.FromParts(text, matches[5], matches[6], matches[7], matches[8])
		if err != nil {
			return nil, false
		}
		content := strings.Join(lines[i+1:], "")
		return NewLine(start, end, content, nil), true
	}
	return nil, false
}

// Encode writes 1-based cues with comma decimal separators.
func (c *SRTCodec) Encode(sub *Subtitle, opts Options) (string, error) {
	var sb strings.Builder
	for i, line := range sub.Lines {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(line.Start, opts.FrameRate),
			formatSRTTime(line.End, opts.FrameRate)))

		sb.WriteString(line.Content)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func formatSRTTime(ms timecode.Millis, frameRate int) string {
	if frameRate > 0 {
		return timecode.FormatFrames(ms, frameRate, 2, ",")
	}
	return timecode.FormatWith(ms, 2, ",")
}
