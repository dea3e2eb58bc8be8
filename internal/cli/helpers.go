package cli

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mgpai22/subedit/internal/subtitle"
	"github.com/mgpai22/subedit/internal/timecode"
)

// parseTime reads a timestamp given as H:MM:SS(.mmm) or as whole
// milliseconds.
func parseTime(value string) (timecode.Millis, error) {
	value = strings.TrimSpace(value)
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("time must not be negative: %s", value)
		}
		return timecode.Millis(ms), nil
	}
	return timecode.Parse(value)
}

// parseDelta reads a signed offset such as -500, +1500 or -0:00:01.200.
func parseDelta(value string) (timecode.Millis, error) {
	value = strings.TrimSpace(value)
	sign := timecode.Millis(1)
	switch {
	case strings.HasPrefix(value, "-"):
		sign = -1
		value = value[1:]
	case strings.HasPrefix(value, "+"):
		value = value[1:]
	}
	ms, err := parseTime(value)
	if err != nil {
		return 0, err
	}
	return sign * ms, nil
}

// parseLineNumber converts a 1-based line number to an index.
func parseLineNumber(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid line number %q: use 1 or more", value)
	}
	return n - 1, nil
}

// parseLineSet reads a list like "1,3,5-7" of 1-based line numbers and
// returns sorted, unique indexes. An empty list returns nil.
func parseLineSet(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	seen := make(map[int]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		from, to, isRange := strings.Cut(part, "-")
		first, err := parseLineNumber(from)
		if err != nil {
			return nil, err
		}
		last := first
		if isRange {
			if last, err = parseLineNumber(to); err != nil {
				return nil, err
			}
		}
		if last < first {
			return nil, fmt.Errorf("invalid line range %q", part)
		}
		for i := first; i <= last; i++ {
			seen[i] = true
		}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

var topicUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// topicFromPath derives a session name from a file name.
func topicFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = topicUnsafe.ReplaceAllString(base, "-")
	return strings.TrimLeft(base, ".-_")
}

// resolveFormat picks the explicit format when given, else the one implied
// by path.
func resolveFormat(name, path string) (subtitle.Format, error) {
	if name != "" {
		return subtitle.ParseFormat(name)
	}
	format, ok := subtitle.FormatFromExtension(path)
	if !ok {
		return "", fmt.Errorf("cannot tell the format of %s: use --format", path)
	}
	return format, nil
}

func oneLine(content string) string {
	return strings.ReplaceAll(content, "\n", " / ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
