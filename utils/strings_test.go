package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraphemeLen_ASCII(t *testing.T) {
	assert.EqualValues(t, 0, GraphemeLen(""))
	assert.EqualValues(t, 5, GraphemeLen("hello"))
}

func TestGraphemeLen_CombiningMarks(t *testing.T) {
	// "a" followed by a combining acute accent is one character.
	assert.EqualValues(t, 3, GraphemeLen("ca\u0301t"))
}

func TestGraphemeLen_Emoji(t *testing.T) {
	// Family emoji joined with ZWJ and a flag made of two regional indicators.
	assert.EqualValues(t, 1, GraphemeLen("\U0001F468\u200D\U0001F469\u200D\U0001F467"))
	assert.EqualValues(t, 1, GraphemeLen("\U0001F1EF\U0001F1F5"))
	assert.EqualValues(t, 3, GraphemeLen("a\U0001F1EF\U0001F1F5b"))
}

func TestGraphemeLen_CJK(t *testing.T) {
	assert.EqualValues(t, 3, GraphemeLen("日本語"))
}

func TestGraphemeOffset_CountsPrefix(t *testing.T) {
	s := "日本,\"x\""
	// Byte offset of the quote character.
	off := len("日本,")
	assert.EqualValues(t, 3, GraphemeOffset(s, off))
}

func TestGraphemeOffset_Clamps(t *testing.T) {
	assert.EqualValues(t, 0, GraphemeOffset("abc", -1))
	assert.EqualValues(t, 3, GraphemeOffset("abc", 10))
}

func TestWordWrap_FitsOnOneLine(t *testing.T) {
	assert.EqualValues(t, []string{"hi there"}, WordWrap("hi there", 20))
}

func TestWordWrap_SplitsLongWords(t *testing.T) {
	lines := WordWrap("abcdefghij", 4)
	assert.EqualValues(t, []string{"abcd", "efgh", "ij"}, lines)
}

func TestWordWrap_ZeroWidth(t *testing.T) {
	assert.Nil(t, WordWrap("hello", 0))
}
