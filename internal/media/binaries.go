package media

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// Binaries are the ffmpeg tools used for probing and audio extraction.
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

var (
	locateOnce sync.Once
	located    Binaries
	locateErr  error
)

// Locate finds ffmpeg and ffprobe once per process. SUBEDIT_FFMPEG_PATH and
// SUBEDIT_FFPROBE_PATH override the PATH lookup.
func Locate() (Binaries, error) {
	locateOnce.Do(func() {
		located, locateErr = locate(os.Getenv, exec.LookPath)
	})
	return located, locateErr
}

func locate(getenv func(string) string, lookPath func(string) (string, error)) (Binaries, error) {
	var (
		b    Binaries
		errs []error
	)
	find := func(envName, binary string) string {
		if p := getenv(envName); p != "" {
			return p
		}
		p, err := lookPath(binary)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s not found (set %s or add it to PATH): %w", binary, envName, err))
			return ""
		}
		return p
	}
	b.FFmpeg = find("SUBEDIT_FFMPEG_PATH", "ffmpeg")
	b.FFprobe = find("SUBEDIT_FFPROBE_PATH", "ffprobe")
	if len(errs) > 0 {
		return Binaries{}, errors.Join(errs...)
	}
	return b, nil
}
