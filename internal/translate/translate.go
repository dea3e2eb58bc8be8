package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mgpai22/subedit/internal/subtitle"
)

// single text item to translate
type Item struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Completer sends one prompt to a language model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const DefaultBatchSize = 50

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per API request (default 50)
	Concurrency    int // batches in flight (default 3)
}

// Translator splits items into batches and sends each batch to a Completer.
type Translator struct {
	completer Completer
	options   Options
}

func New(c Completer, opts Options) (*Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}
	return &Translator{completer: c, options: opts}, nil
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (*Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	var (
		c   Completer
		err error
	)
	switch provider {
	case ProviderGemini:
		c, err = newGeminiCompleter(ctx, apiKey, opts.Model)
	case ProviderOpenAI:
		c, err = newOpenAICompleter(apiKey, opts.Model)
	case ProviderAnthropic:
		c, err = newAnthropicCompleter(apiKey, opts.Model)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}
	return New(c, opts)
}

func (t *Translator) batchSize() int {
	if t.options.BatchSize > 0 {
		return t.options.BatchSize
	}
	return DefaultBatchSize
}

// Translate returns one translated item per input item, ordered by index.
// Batches run concurrently; the first failing batch cancels the rest.
func (t *Translator) Translate(ctx context.Context, items []Item) ([]Item, error) {
	if len(items) == 0 {
		return []Item{}, nil
	}

	concurrency := t.options.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	size := t.batchSize()
	var batches [][]Item
	for i := 0; i < len(items); i += size {
		batches = append(batches, items[i:min(i+size, len(items))])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []Item
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Go(func() {
			for batchIdx := range workChan {
				if ctx.Err() != nil {
					return
				}
				results, err := t.translateBatch(ctx, batches[batchIdx])
				if err != nil {
					cancel()
				}
				resultChan <- batchResult{Index: batchIdx, Results: results, Error: err}
			}
		})
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var (
		all      []Item
		firstErr error
		done     int
	)
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", result.Index, result.Error)
			}
			continue
		}
		done++
		all = append(all, result.Results...)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if done < len(batches) {
		return nil, ctx.Err()
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	return all, nil
}

func (t *Translator) translateBatch(ctx context.Context, items []Item) ([]Item, error) {
	text, err := t.completer.Complete(ctx, BuildPrompt(t.options, items))
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	return parseResponse(text, items)
}

// BuildPrompt creates the translation prompt for LLM providers
func BuildPrompt(opts Options, items []Item) string {
	var sb strings.Builder

	if opts.InputLanguage != "" {
		fmt.Fprintf(&sb, "Translate the following %s subtitle texts to %s.\n\n", opts.InputLanguage, opts.TargetLanguage)
	} else {
		fmt.Fprintf(&sb, "Translate the following subtitle texts to %s.\n\n", opts.TargetLanguage)
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning.\n")
	sb.WriteString("2. Keep line breaks in the same positions.\n")
	sb.WriteString("3. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("4. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString("5. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("6. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	sb.WriteString("Input JSON:\n")
	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}

// ItemsFromLines collects the non-empty lines of a track. With indexes only
// those lines are taken.
func ItemsFromLines(lines []*subtitle.Line, indexes []int) []Item {
	if indexes == nil {
		indexes = make([]int, len(lines))
		for i := range lines {
			indexes[i] = i
		}
	}
	var items []Item
	for _, i := range indexes {
		if i < 0 || i >= len(lines) || strings.TrimSpace(lines[i].Content) == "" {
			continue
		}
		items = append(items, Item{Index: i, Text: lines[i].Content})
	}
	return items
}

// Contents maps results to new line contents. With overlay the translation
// is placed above the original text.
func Contents(lines []*subtitle.Line, results []Item, overlay bool) map[int]string {
	out := make(map[int]string, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(lines) {
			continue
		}
		text := r.Text
		if overlay {
			text = r.Text + "\n" + lines[r.Index].Content
		}
		out[r.Index] = text
	}
	return out
}
