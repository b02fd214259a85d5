// Package timespec parses and formats the human duration expressions
// accepted by the /set_time command, e.g. "45", "10m", "2h", "1w".
package timespec

import (
	"errors"
	"strconv"
	"time"
)

const (
	// MinDeleteAfter is the shortest accepted auto-delete delay.
	MinDeleteAfter = 30 * time.Second
	// MaxDeleteAfter is the longest accepted auto-delete delay (one week).
	MaxDeleteAfter = 7 * 24 * time.Hour
	// DefaultDeleteAfter is applied to groups without an explicit setting.
	DefaultDeleteAfter = 600 * time.Second
)

// ErrInvalidFormat covers every rejection: malformed text, unknown unit,
// or a value outside [MinDeleteAfter, MaxDeleteAfter]. Callers do not need
// finer-grained diagnosis.
var ErrInvalidFormat = errors.New("invalid time format")

var unitMultipliers = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// Parse converts a time expression into a duration. The grammar is an
// unsigned integer with an optional trailing unit letter from {s,m,h,d,w},
// case-insensitive; a bare number means seconds.
func Parse(text string) (time.Duration, error) {
	if text == "" {
		return 0, ErrInvalidFormat
	}

	digits := text
	multiplier := time.Second

	last := text[len(text)-1]
	if last < '0' || last > '9' {
		if last >= 'A' && last <= 'Z' {
			last += 'a' - 'A'
		}
		m, ok := unitMultipliers[last]
		if !ok {
			return 0, ErrInvalidFormat
		}
		multiplier = m
		digits = text[:len(text)-1]
	}

	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, ErrInvalidFormat
	}

	// Bound before multiplying: the product would wrap int64 for large n
	// and could land back inside the accepted range.
	if n > uint64(MaxDeleteAfter/multiplier) {
		return 0, ErrInvalidFormat
	}

	d := time.Duration(n) * multiplier
	if d < MinDeleteAfter {
		return 0, ErrInvalidFormat
	}
	return d, nil
}

// Format renders a duration using the largest unit whose multiplier fits,
// flooring the division. The result is intentionally lossy for non-exact
// multiples (90s formats as "1m"); it is only used for confirmation text.
func Format(d time.Duration) string {
	units := []struct {
		multiplier time.Duration
		letter     string
	}{
		{7 * 24 * time.Hour, "w"},
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
	}

	for _, u := range units {
		if d >= u.multiplier {
			return strconv.FormatInt(int64(d/u.multiplier), 10) + u.letter
		}
	}
	return strconv.FormatInt(int64(d/time.Second), 10) + "s"
}
