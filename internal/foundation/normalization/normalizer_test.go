package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type level string

func newLevels() *Normalizer[level] {
	return NewNormalizer(map[string]level{
		"debug":   "debug",
		"warn":    "warn",
		"Warning": "warn",
	}, "info")
}

func TestNormalize(t *testing.T) {
	n := newLevels()
	tests := map[string]level{
		"debug":     "debug",
		"  DEBUG  ": "debug",
		"warning":   "warn",
		"WARN":      "warn",
		"verbose":   "info",
		"":          "info",
	}
	for raw, want := range tests {
		assert.Equal(t, want, n.Normalize(raw), raw)
	}
}

func TestLookup(t *testing.T) {
	n := newLevels()

	v, ok := n.Lookup(" Warning ")
	assert.True(t, ok)
	assert.Equal(t, level("warn"), v)

	_, ok = n.Lookup("loud")
	assert.False(t, ok)
}

func TestOptionsSortedAndCopied(t *testing.T) {
	n := newLevels()
	opts := n.Options()
	assert.Equal(t, []string{"debug", "warn", "warning"}, opts)

	opts[0] = "changed"
	assert.Equal(t, "debug", n.Options()[0])
}
