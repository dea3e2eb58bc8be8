package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile encodes sub in format and writes it to path, creating parent
// directories as needed.
func WriteFile(sub *Subtitle, path string, format Format, opts Options) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := Encode(format, sub, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// subtitle format based on file extension
func FormatFromExtension(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return FormatSRT, true
	case ".vtt":
		return FormatVTT, true
	case ".txt":
		return FormatInline, true
	case ".ass", ".ssa":
		return FormatSSA, true
	case ".ttml", ".xml":
		return FormatTTML, true
	default:
		return "", false
	}
}

// file extension for a format
func ExtensionForFormat(format Format) string {
	switch format {
	case FormatSRT:
		return ".srt"
	case FormatVTT:
		return ".vtt"
	case FormatInline:
		return ".txt"
	case FormatNoTime:
		return ".txt"
	case FormatSSA:
		return ".ass"
	case FormatTTML:
		return ".ttml"
	default:
		return ".srt"
	}
}
