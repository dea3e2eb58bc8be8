package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Chunk is one slice of a longer audio file.
type Chunk struct {
	Path  string
	Index int
	Start time.Duration
	End   time.Duration
}

// AudioOptions control audio extraction.
type AudioOptions struct {
	Format     string // mp3, aac, flac or wav
	SampleRate int
	Channels   int
	Bitrate    string
}

// DefaultAudioOptions suit speech recognition uploads.
func DefaultAudioOptions() AudioOptions {
	return AudioOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

func audioKwargs(opts AudioOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn": "",
		"ar": opts.SampleRate,
		"ac": opts.Channels,
	}
	switch opts.Format {
	case "aac":
		kwargs["acodec"] = "aac"
	case "flac":
		kwargs["acodec"] = "flac"
	case "wav":
		kwargs["acodec"] = "pcm_s16le"
	default:
		kwargs["acodec"] = "libmp3lame"
	}
	if opts.Bitrate != "" && (opts.Format == "mp3" || opts.Format == "aac" || opts.Format == "") {
		kwargs["b:a"] = opts.Bitrate
	}
	return kwargs
}

// ExtractAudio writes the audio track of inputPath to outputPath.
func ExtractAudio(ctx context.Context, inputPath, outputPath string, opts AudioOptions) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	bins, err := Locate()
	if err != nil {
		return err
	}

	err = ffmpeg.Input(inputPath).
		Output(outputPath, audioKwargs(opts)).
		OverWriteOutput().
		SetFfmpegPath(bins.FFmpeg).
		Run()
	if err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	return nil
}

// PlanChunks cuts total into consecutive chunks of at most size. Paths are
// derived from base and ext inside dir.
func PlanChunks(total, size time.Duration, dir, base, ext string) []Chunk {
	if size <= 0 || total <= 0 {
		return nil
	}
	var chunks []Chunk
	for i := 0; ; i++ {
		start := time.Duration(i) * size
		if start >= total {
			break
		}
		end := start + size
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{
			Path:  filepath.Join(dir, fmt.Sprintf("%s_chunk_%03d%s", base, i, ext)),
			Index: i,
			Start: start,
			End:   end,
		})
	}
	return chunks
}

// SplitAudio cuts audioPath into chunks of chunkDuration inside outputDir,
// running at most concurrency ffmpeg processes (10 when not positive).
func SplitAudio(ctx context.Context, audioPath string, chunkDuration time.Duration, outputDir string, concurrency int) ([]Chunk, error) {
	if chunkDuration <= 0 {
		return nil, fmt.Errorf("chunk duration must be positive, got %v", chunkDuration)
	}
	if concurrency <= 0 {
		concurrency = 10
	}

	info, err := Probe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	bins, err := Locate()
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(audioPath)
	base := strings.TrimSuffix(filepath.Base(audioPath), ext)
	jobs := PlanChunks(info.Duration, chunkDuration, outputDir, base, ext)

	var (
		mu       sync.Mutex
		chunks   []Chunk
		firstErr error
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, concurrency)

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(c Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			mu.Lock()
			stop := firstErr != nil || ctx.Err() != nil
			mu.Unlock()
			if stop {
				return
			}

			err := ffmpeg.Input(audioPath).
				Output(c.Path, ffmpeg.KwArgs{
					"ss": c.Start.Seconds(),
					"t":  (c.End - c.Start).Seconds(),
					"c":  "copy",
				}).
				OverWriteOutput().
				SetFfmpegPath(bins.FFmpeg).
				Run()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to create chunk %d: %w", c.Index, err)
				}
				return
			}
			chunks = append(chunks, c)
		}(job)
	}
	wg.Wait()

	if firstErr != nil {
		_ = CleanupChunks(chunks)
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		_ = CleanupChunks(chunks)
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})
	return chunks, nil
}

var (
	videoExts = map[string]bool{
		".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
		".webm": true, ".m4v": true, ".mpeg": true, ".mpg": true, ".3gp": true,
	}
	audioExts = map[string]bool{
		".mp3": true, ".wav": true, ".aac": true, ".flac": true, ".ogg": true,
		".m4a": true, ".wma": true, ".aiff": true,
	}
)

// IsVideoFile checks the extension only.
func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// IsAudioFile checks the extension only.
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}

// CleanupChunks removes chunk files, ignoring ones already gone.
func CleanupChunks(chunks []Chunk) error {
	var lastErr error
	for _, c := range chunks {
		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}
