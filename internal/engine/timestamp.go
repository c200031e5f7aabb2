package engine

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// Parsing is deliberately lenient: digit counts vary, hours may be
// absent. Formatting always emits the fixed-width canonical form, so
// parse(format(ms)) == ms while the reverse does not hold.
var (
	vttTimestampFull = regexp.MustCompile(`^(?:(\d+):)?(\d+):(\d+)\.(\d+)$`)
	srtTimestampFull = regexp.MustCompile(`^(?:(\d+):)?(\d+):(\d+),(\d+)$`)
	assTimestampFull = regexp.MustCompile(`^(\d+):(\d+):(\d+)\.(\d+)$`)
)

// parseClock assembles milliseconds from matched clock fields. frac is
// the raw fractional-second digits; they are right-padded with zeros to
// digits places (a one-digit fraction d means d00, not 00d) and
// truncated past that, never rounded.
func parseClock(hours, minutes, seconds, frac string, digits int) (int, error) {
	h := 0
	if hours != "" {
		var err error
		h, err = strconv.Atoi(hours)
		if err != nil {
			return 0, err
		}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	for len(frac) < digits {
		frac += "0"
	}
	f, err := strconv.Atoi(frac[:digits])
	if err != nil {
		return 0, err
	}
	ms := f
	for i := digits; i < 3; i++ {
		ms *= 10
	}
	return h*msPerHour + m*msPerMinute + s*msPerSecond + ms, nil
}

func parseVTTTimestamp(s string) (int, error) {
	m := vttTimestampFull.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%q: %w", s, ErrNotATimestamp)
	}
	return parseClock(m[1], m[2], m[3], m[4], 3)
}

func formatVTTTimestamp(ms int) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/msPerHour,
		ms%msPerHour/msPerMinute,
		ms%msPerMinute/msPerSecond,
		ms%msPerSecond)
}

func parseSRTTimestamp(s string) (int, error) {
	m := srtTimestampFull.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%q: %w", s, ErrNotATimestamp)
	}
	return parseClock(m[1], m[2], m[3], m[4], 3)
}

func formatSRTTimestamp(ms int) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d,%03d",
		ms/msPerHour,
		ms%msPerHour/msPerMinute,
		ms%msPerMinute/msPerSecond,
		ms%msPerSecond)
}

// ASS clocks carry centiseconds and a single hour digit.
func parseASSTimestamp(s string) (int, error) {
	m := assTimestampFull.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%q: %w", s, ErrNotATimestamp)
	}
	ms, err := parseClock(m[1], m[2], m[3], m[4], 2)
	if err != nil {
		return 0, err
	}
	return ms, nil
}

func formatASSTimestamp(ms int) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%d:%02d:%02d.%02d",
		ms/msPerHour,
		ms%msPerHour/msPerMinute,
		ms%msPerMinute/msPerSecond,
		ms%msPerSecond/10)
}
