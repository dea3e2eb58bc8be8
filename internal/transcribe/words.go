package transcribe

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mgpai22/subedit/internal/timecode"
	"github.com/mgpai22/subedit/internal/transcript"
)

// spreadWords splits text on whitespace and gives each word an equal share
// of [start, end).
func spreadWords(text string, start, end timecode.Millis) []transcript.Word {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	if end < start {
		end = start
	}
	step := (end - start) / timecode.Millis(len(fields))
	words := make([]transcript.Word, len(fields))
	for i, f := range fields {
		ws := start + step*timecode.Millis(i)
		we := ws + step
		if i == len(fields)-1 {
			we = end
		}
		words[i] = transcript.Word{Start: ws, End: we, Text: f}
	}
	return words
}

// one timed item in a model's JSON answer; models use either "word" or
// "text" for the content
type timedItem struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
	Text  string  `json:"text"`
}

func (it timedItem) content() string {
	if it.Word != "" {
		return it.Word
	}
	return it.Text
}

func validateItems(items []timedItem) bool {
	for _, it := range items {
		if it.content() != "" || it.Start != 0 || it.End != 0 {
			return true
		}
	}
	return false
}

var jsonFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonFenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// preferred wrapper keys when a model nests the array in an object
var wrapperKeys = []string{"words", "segments", "transcript", "data", "response"}

// extractTimedItems finds the first JSON array of timed items in a model
// answer, skipping prose around it and unwrapping objects that hold it.
func extractTimedItems(s string) ([]timedItem, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		if items, ok := itemsFrom(raw, 0); ok {
			return items, nil
		}
		// skip past the value just decoded
		i += int(dec.InputOffset()) - 1
	}
	return nil, errors.New("no timed items found in response")
}

func itemsFrom(raw json.RawMessage, depth int) ([]timedItem, bool) {
	if depth > 4 {
		return nil, false
	}
	var items []timedItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, validateItems(items)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	for _, key := range wrapperKeys {
		if v, ok := obj[key]; ok {
			if items, ok := itemsFrom(v, depth+1); ok {
				return items, true
			}
		}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if items, ok := itemsFrom(obj[k], depth+1); ok {
			return items, true
		}
	}
	return nil, false
}

// toWords converts items to words. Items holding several words are spread
// across their time range.
func toWords(items []timedItem) []transcript.Word {
	var words []transcript.Word
	for _, it := range items {
		text := strings.TrimSpace(it.content())
		if text == "" {
			continue
		}
		words = append(words, spreadWords(text, seconds(it.Start), seconds(it.End))...)
	}
	return words
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseItems(text string) ([]transcript.Word, error) {
	items, err := extractTimedItems(cleanJSONResponse(text))
	if err != nil {
		return nil, fmt.Errorf("%w (response: %s)", err, truncateString(text, 200))
	}
	return toWords(items), nil
}
