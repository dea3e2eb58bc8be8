package transcribe

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/mgpai22/subedit/internal/media"
	"github.com/mgpai22/subedit/internal/timecode"
	"github.com/mgpai22/subedit/internal/transcript"
)

// transcription result
type Result struct {
	Words    []transcript.Word
	Language string
	Duration time.Duration
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// transcription options
type Options struct {
	Language string // source language of the audio
	Model    string
	Prompt   string
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// holds the result of transcribing a chunk
type chunkResult struct {
	Index int
	Words []transcript.Word
	Error error
}

// TranscribeChunks runs t over chunks with at most concurrency requests in
// flight (3 when not positive) and merges the words in chunk order, shifted
// by each chunk's offset. The first failure cancels the rest.
func TranscribeChunks(
	ctx context.Context,
	t Transcriber,
	chunks []media.Chunk,
	concurrency int,
) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{}, nil
	}
	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan media.Chunk)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Go(func() {
			for chunk := range workChan {
				if ctx.Err() != nil {
					return
				}
				res, err := t.Transcribe(ctx, chunk.Path)
				if err != nil {
					cancel()
					resultChan <- chunkResult{Index: chunk.Index, Error: err}
					continue
				}
				resultChan <- chunkResult{
					Index: chunk.Index,
					Words: offsetWords(res.Words, timecode.FromDuration(chunk.Start)),
				}
			}
		})
	}

	go func() {
		defer close(workChan)
		for _, chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			case workChan <- chunk:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]chunkResult, 0, len(chunks))
	var firstErr error
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chunk %d failed: %w", result.Index, result.Error)
			}
			continue
		}
		results = append(results, result)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(results) < len(chunks) {
		return nil, err
	}

	// sort by index to maintain order
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	var words []transcript.Word
	for _, r := range results {
		words = append(words, r.Words...)
	}
	return &Result{
		Words:    words,
		Duration: chunks[len(chunks)-1].End,
	}, nil
}

func offsetWords(words []transcript.Word, offset timecode.Millis) []transcript.Word {
	out := make([]transcript.Word, len(words))
	for i, w := range words {
		w.Start += offset
		w.End += offset
		out[i] = w
	}
	return out
}

// seconds converts provider timestamps to milliseconds.
func seconds(s float64) timecode.Millis {
	if s <= 0 {
		return 0
	}
	return timecode.Millis(math.Round(s * 1000))
}
