package subtitle

import (
	"fmt"
	"os"
	"strings"
)

// Options tune decoding and encoding. FrameRate switches sub-second fields
// to frame numbers where the format allows it.
type Options struct {
	FrameRate int
}

// reads and writes one subtitle format
type Codec interface {
	Format() Format
	Decode(data string, opts Options) (*Subtitle, error)
	Encode(sub *Subtitle, opts Options) (string, error)
}

func NewCodec(format Format) (Codec, error) {
	switch format {
	case FormatSRT:
		return &SRTCodec{}, nil
	case FormatVTT:
		return &VTTCodec{}, nil
	case FormatInline:
		return &InlineCodec{}, nil
	case FormatNoTime:
		return &NoTimeCodec{}, nil
	case FormatSSA, FormatTTML:
		return &AstisubCodec{format: format}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ParseFormat maps a user supplied name onto a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "inline":
		return FormatInline, nil
	case "notime", "txt", "text":
		return FormatNoTime, nil
	case "ssa", "ass":
		return FormatSSA, nil
	case "ttml":
		return FormatTTML, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt, vtt, inline, notime, ssa or ttml", name)
	}
}

// Open decodes the file at path, picking the codec from its extension.
func Open(path string, opts Options) (*Subtitle, error) {
	format, ok := FormatFromExtension(path)
	if !ok {
		return nil, fmt.Errorf("unsupported subtitle format: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	return Decode(format, string(data), opts)
}

// Decode parses data with the codec for format.
func Decode(format Format, data string, opts Options) (*Subtitle, error) {
	codec, err := NewCodec(format)
	if err != nil {
		return nil, err
	}
	sub, err := codec.Decode(data, opts)
	if err != nil {
		return nil, err
	}
	if sub.FrameRate == 0 {
		sub.FrameRate = opts.FrameRate
	}
	return sub, nil
}

// Encode serializes sub with the codec for format.
func Encode(format Format, sub *Subtitle, opts Options) (string, error) {
	codec, err := NewCodec(format)
	if err != nil {
		return "", err
	}
	return codec.Encode(sub, opts)
}

// normalizeInput strips a byte order mark and converts CRLF to LF.
func normalizeInput(data string) string {
	data = strings.TrimPrefix(data, "\ufeff")
	data = strings.ReplaceAll(data, "\r\n", "\n")
	return strings.ReplaceAll(data, "\r", "\n")
}

// run of consecutive non-blank lines
type block struct {
	first int
	lines []string
}

func splitBlocks(lines []string) []block {
	var blocks []block
	var current *block
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			if current != nil {
				blocks = append(blocks, *current)
				current = nil
			}
			continue
		}
		if current == nil {
			current = &block{first: i}
		}
		current.lines = append(current.lines, line)
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}
