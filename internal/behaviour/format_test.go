package behaviour

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatterDuration(t *testing.T) {
	f := NewFormatter("en")
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 seconds"},
		{time.Second, "1 second"},
		{1400 * time.Millisecond, "1 second"},
		{61 * time.Second, "1 minute 1 second"},
		{time.Hour, "1 hour"},
		{3725 * time.Second, "1 hour 2 minutes 5 seconds"},
		{-90 * time.Second, "1 minute 30 seconds"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, f.Duration(tc.in), "duration %s", tc.in)
	}
}

func TestFormatterPercentAndClock(t *testing.T) {
	f := NewFormatter("en")
	assert.Equal(t, "33%", f.Percent(time.Second, 3*time.Second))
	assert.Equal(t, "100%", f.Percent(time.Minute, time.Minute))
	assert.Equal(t, "0%", f.Percent(time.Minute, 0))
	assert.Equal(t, "07:05", f.Clock(time.Date(2024, 1, 1, 7, 5, 59, 0, time.UTC)))
}

func TestFormatterLanguage(t *testing.T) {
	assert.Equal(t, "de", NewFormatter("de").Language().String())
	assert.Equal(t, "en", NewFormatter("").Language().String())
	assert.Equal(t, "en", NewFormatter("not a tag!!").Language().String())
}
