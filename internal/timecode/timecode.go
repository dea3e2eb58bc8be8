package timecode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Millis is a non-negative offset in milliseconds. Its text form is the
// canonical H:MM:SS.mmm used across codecs and persisted history.
type Millis int64

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute

	// largest sub-second value when no frame rate is set
	maxMillisFraction = 999

	// keeps h*msPerHour plus the minute, second and fraction parts in int64
	maxHours = (math.MaxInt64 - msPerHour) / msPerHour
)

var canonicalRegex = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})(?:\.(\d+))?$`)

// FormatError reports a timestamp that does not match H+:MM:SS(.mmm)?
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid timecode %q", e.Input)
	}
	return fmt.Sprintf("invalid timecode %q: %s", e.Input, e.Reason)
}

// Parse converts H:MM:SS.mmm into milliseconds. The fraction is optional
// and is right-padded or truncated to three digits.
func Parse(text string) (Millis, error) {
	matches := canonicalRegex.FindStringSubmatch(strings.TrimSpace(text))
	if matches == nil {
		return 0, &FormatError{Input: text}
	}
	return FromParts(text, matches[1], matches[2], matches[3], matches[4])
}

// FromParts assembles a Millis value from already split digit groups. The
// fraction is interpreted as a decimal fraction of a second.
func FromParts(input, hours, minutes, seconds, fraction string) (Millis, error) {
	h, err := strconv.ParseInt(hours, 10, 64)
	if err != nil || h > maxHours {
		return 0, &FormatError{Input: input, Reason: "hours out of range"}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m > 59 {
		return 0, &FormatError{Input: input, Reason: "minutes out of range"}
	}
	s, err := strconv.Atoi(seconds)
	if err != nil || s > 59 {
		return 0, &FormatError{Input: input, Reason: "seconds out of range"}
	}
	ms, err := FractionMillis(fraction)
	if err != nil {
		return 0, &FormatError{Input: input, Reason: "bad fraction"}
	}
	return Millis(h*msPerHour + int64(m)*msPerMinute + int64(s)*msPerSecond + int64(ms)), nil
}

// FractionMillis reads a decimal fraction of a second ("5" is 500ms,
// "0423" is 42ms).
func FractionMillis(fraction string) (int, error) {
	if fraction == "" {
		return 0, nil
	}
	if len(fraction) > 3 {
		fraction = fraction[:3]
	}
	for len(fraction) < 3 {
		fraction += "0"
	}
	return strconv.Atoi(fraction)
}

// Format renders ms as H:MM:SS.mmm. Negative values render as zero.
func Format(ms Millis) string {
	h, m, s, frac := ms.split()
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, frac)
}

// FormatWith renders ms with a zero padded hour field of hourWidth digits
// and the given sub-second separator. Codecs use this for HH:MM:SS,mmm.
func FormatWith(ms Millis, hourWidth int, sep string) string {
	h, m, s, frac := ms.split()
	return fmt.Sprintf("%0*d:%02d:%02d%s%03d", hourWidth, h, m, s, sep, frac)
}

// FormatFrames renders ms as H:MM:SS<sep>FF where FF is the frame index
// for frameRate, padded to the digit count of frameRate.
func FormatFrames(ms Millis, frameRate int, hourWidth int, sep string) string {
	if frameRate <= 0 {
		return FormatWith(ms, hourWidth, sep)
	}
	h, m, s, frac := ms.split()
	frame := ToFrame(Millis(frac), frameRate)
	return fmt.Sprintf(
		"%0*d:%02d:%02d%s%0*d",
		hourWidth, h, m, s, sep, FrameDigits(frameRate), frame,
	)
}

// ToFrame converts the sub-second part of an offset to a frame number.
// A value that would round up to a whole second stays on the last frame
// (999 without a frame rate) so the seconds field never increments.
func ToFrame(msFraction Millis, frameRate int) int {
	if msFraction < 0 {
		msFraction = 0
	}
	if frameRate <= 0 {
		if msFraction > maxMillisFraction {
			return maxMillisFraction
		}
		return int(msFraction)
	}
	frame := int(math.Round(float64(msFraction) / (1000 / float64(frameRate))))
	if frame > frameRate-1 {
		frame = frameRate - 1
	}
	return frame
}

// FromFrame converts a frame number back to a millisecond fraction,
// clamping the frame to [0, frameRate-1] first.
func FromFrame(frame, frameRate int) Millis {
	if frameRate <= 0 {
		return Millis(clamp(frame, 0, maxMillisFraction))
	}
	frame = clamp(frame, 0, frameRate-1)
	return Millis(math.Round(float64(frame) * 1000 / float64(frameRate)))
}

// FrameDigits is the decimal digit count of the frame rate value.
func FrameDigits(frameRate int) int {
	if frameRate <= 0 {
		return 3
	}
	return len(strconv.Itoa(frameRate))
}

// WholeSeconds drops the sub-second part.
func (ms Millis) WholeSeconds() Millis {
	return ms - ms%msPerSecond
}

// Fraction is the sub-second part in milliseconds.
func (ms Millis) Fraction() Millis {
	return ms % msPerSecond
}

func (ms Millis) String() string {
	return Format(ms)
}

// Duration converts to time.Duration.
func (ms Millis) Duration() time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// FromDuration truncates d to whole milliseconds. Negative durations clamp
// to zero.
func FromDuration(d time.Duration) Millis {
	if d < 0 {
		return 0
	}
	return Millis(d / time.Millisecond)
}

// Clamp limits ms to [lo, hi].
func (ms Millis) Clamp(lo, hi Millis) Millis {
	if ms < lo {
		return lo
	}
	if ms > hi {
		return hi
	}
	return ms
}

func (ms Millis) MarshalText() ([]byte, error) {
	return []byte(Format(ms)), nil
}

func (ms *Millis) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*ms = v
	return nil
}

func (ms Millis) split() (h int64, m, s, frac int) {
	if ms < 0 {
		ms = 0
	}
	v := int64(ms)
	h = v / msPerHour
	m = int(v % msPerHour / msPerMinute)
	s = int(v % msPerMinute / msPerSecond)
	frac = int(v % msPerSecond)
	return h, m, s, frac
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
