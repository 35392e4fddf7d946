package screeningsrv

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		raw, ok := extractJSON(`{"a": 1}`)
		assert.True(t, ok)
		assert.Equal(t, `{"a": 1}`, raw)
	})

	t.Run("fenced object", func(t *testing.T) {
		raw, ok := extractJSON("Here you go:\n```json\n{\"a\": 1}\n```\nanything else")
		assert.True(t, ok)
		assert.Equal(t, `{"a": 1}`, raw)
	})

	t.Run("object with prose around it", func(t *testing.T) {
		raw, ok := extractJSON(`Sure! The result is {"a": {"b": 2}} as requested.`)
		assert.True(t, ok)
		assert.Equal(t, `{"a": {"b": 2}}`, raw)
	})

	t.Run("braces inside strings do not break matching", func(t *testing.T) {
		raw, ok := extractJSON(`{"a": "closing } inside", "b": "open {"}`)
		assert.True(t, ok)
		assert.Equal(t, `{"a": "closing } inside", "b": "open {"}`, raw)
	})

	t.Run("escaped quotes inside strings", func(t *testing.T) {
		raw, ok := extractJSON(`{"a": "quoted \" brace }"}`)
		assert.True(t, ok)
		assert.Equal(t, `{"a": "quoted \" brace }"}`, raw)
	})

	t.Run("no object at all", func(t *testing.T) {
		_, ok := extractJSON("I could not process that request.")
		assert.False(t, ok)
	})

	t.Run("unclosed object", func(t *testing.T) {
		_, ok := extractJSON(`{"a": 1`)
		assert.False(t, ok)
	})

	t.Run("empty input", func(t *testing.T) {
		_, ok := extractJSON("   ")
		assert.False(t, ok)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "", truncate("", 5))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	// "α" is two bytes; a cut at byte 5 lands mid-rune and must back off
	assert.Equal(t, "αα", truncate("ααα", 5))
	assert.Equal(t, "ααα", truncate("ααα", 6))

	for max := 1; max < 8; max++ {
		out := truncate("résumé", max)
		assert.True(t, utf8.ValidString(out), "max=%d produced invalid UTF-8: %q", max, out)
		assert.LessOrEqual(t, len(out), max)
	}
}
