package subtitle

import "strings"

// plain text, one line per cue, no timestamps
type NoTimeCodec struct{}

func (c *NoTimeCodec) Format() Format {
	return FormatNoTime
}

func (c *NoTimeCodec) Decode(string, Options) (*Subtitle, error) {
	return nil, ErrDecodeUnsupported
}

func (c *NoTimeCodec) Encode(sub *Subtitle, _ Options) (string, error) {
	var sb strings.Builder
	for _, line := range sub.Lines {
		sb.WriteString(line.Content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
