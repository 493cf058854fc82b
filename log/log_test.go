package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_PlainModeKeepsLineFeeds(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", 0, false)

	l.Println("hello\nworld")
	assert.EqualValues(t, "hello\nworld\n", buf.String())
}

func TestLogger_RawModePrefixesCarriageReturns(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", 0, true)

	l.Println("hello\nworld")
	assert.EqualValues(t, "hello\r\nworld\r\n", buf.String())
}

func TestLogger_RawModeDoesNotDoublePrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", 0, true)

	l.Printf("hello\r\nworld")
	assert.EqualValues(t, "hello\r\nworld\r\n", buf.String())
}

func TestLogger_DebugOnlyWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "", 0, false)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.SetVerbose(true)
	l.Debugf("shown %d", 2)
	assert.EqualValues(t, "debug: shown 2\n", buf.String())
}

func TestLogger_ToggleRawMode(t *testing.T) {
	l := New(&bytes.Buffer{}, "", 0, false)
	assert.False(t, l.RawMode())

	l.SetRawMode(true)
	assert.True(t, l.RawMode())
}
