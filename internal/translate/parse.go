package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var jsonFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonFenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// fixes invalid JSON escape sequences like \N (SSA newline) by escaping the
// backslash, so the literal \N survives parsing.
func fixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if i < len(s)-1 && s[i] == '\\' {
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				result.WriteByte(s[i])
				result.WriteByte(next)
			default:
				result.WriteString("\\\\")
				result.WriteByte(next)
			}
			i += 2
			continue
		}
		result.WriteByte(s[i])
		i++
	}

	return result.String()
}

// parseResponse extracts the translated items and checks they answer
// exactly the requested indexes.
func parseResponse(text string, requested []Item) ([]Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text in response")
	}
	text = cleanJSONResponse(text)

	results, err := extractTranslationResults(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w (response: %s)", err, truncateString(text, 200))
	}
	if len(results) != len(requested) {
		return nil, fmt.Errorf("expected %d results, got %d", len(requested), len(results))
	}

	want := make(map[int]bool, len(requested))
	for _, it := range requested {
		want[it.Index] = true
	}
	for _, r := range results {
		if !want[r.Index] {
			return nil, fmt.Errorf("unexpected index %d in response", r.Index)
		}
		delete(want, r.Index)
	}
	if len(want) > 0 {
		return nil, fmt.Errorf("response is missing %d indexes", len(want))
	}
	return results, nil
}

func extractTranslationResults(text string) ([]Item, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if results, ok := tryExtractResults(raw); ok {
			return results, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

var wrapperKeys = []string{"results", "translations", "data", "items"}

func tryExtractResults(raw json.RawMessage) ([]Item, bool) {
	var results []Item
	if err := json.Unmarshal(raw, &results); err == nil && validateResults(results) {
		return results, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	keys := append([]string{}, wrapperKeys...)
	var rest []string
	for k := range wrapper {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	for _, key := range keys {
		fieldRaw, exists := wrapper[key]
		if !exists {
			continue
		}
		var fieldResults []Item
		if err := json.Unmarshal(fieldRaw, &fieldResults); err == nil && validateResults(fieldResults) {
			return fieldResults, true
		}
	}
	return nil, false
}

func validateResults(results []Item) bool {
	for _, r := range results {
		if r.Text != "" {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
