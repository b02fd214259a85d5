package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	cases := []struct {
		text string
		want time.Duration
	}{
		{"30", 30 * time.Second},
		{"45", 45 * time.Second},
		{"600", 600 * time.Second},
		{"604800", 7 * 24 * time.Hour},
		{"30s", 30 * time.Second},
		{"1m", time.Minute},
		{"90M", 90 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"1W", 7 * 24 * time.Hour},
	}

	for _, c := range cases {
		got, err := Parse(c.text)
		require.NoError(t, err, "Parse(%q)", c.text)
		assert.Equal(t, c.want, got, "Parse(%q)", c.text)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"m",
		"abc",
		"10m10s",
		"2w1d",
		"1.5h",
		"-60",
		"60x",
		"10",     // below 30s minimum
		"29",     // below 30s minimum
		"29s",    // below 30s minimum
		"604801", // above one week
		"8d",     // above one week
		"2w",     // above one week
		// huge values whose int64 product wraps back into range
		"30501w",
		"213504d",
		"5124096h",
		"307445736m",
		"4294967295m",
	}

	for _, c := range cases {
		_, err := Parse(c)
		assert.ErrorIs(t, err, ErrInvalidFormat, "Parse(%q)", c)
	}
}

func TestFormatFloorsToLargestUnit(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{59 * time.Second, "59s"},
		{60 * time.Second, "1m"},
		{90 * time.Second, "1m"},
		{3599 * time.Second, "59m"},
		{time.Hour, "1h"},
		{25 * time.Hour, "1d"},
		{7 * 24 * time.Hour, "1w"},
		{0, "0s"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Format(c.d), "Format(%v)", c.d)
	}
}

func TestFormatAfterParseIsLossy(t *testing.T) {
	d, err := Parse("90")
	require.NoError(t, err)
	assert.Equal(t, "1m", Format(d))
}
