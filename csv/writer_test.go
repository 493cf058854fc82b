package csv

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteField(t *testing.T) {
	assert.Equal(t, "plain", QuoteField("plain", ','))
	assert.Equal(t, "", QuoteField("", ','))
	assert.Equal(t, `"a,b"`, QuoteField("a,b", ','))
	assert.Equal(t, "a,b", QuoteField("a,b", ';'))
	assert.Equal(t, `"say ""hi"""`, QuoteField(`say "hi"`, ','))
	assert.Equal(t, "\"two\nlines\"", QuoteField("two\nlines", ','))
	assert.Equal(t, `" lead"`, QuoteField(" lead", ','))
	assert.Equal(t, "trail ", QuoteField("trail ", ','))
}

func TestFormatRecord(t *testing.T) {
	assert.Equal(t, `a,"b,c",d`, FormatRecord([]string{"a", "b,c", "d"}, ','))
	assert.Equal(t, `""`, FormatRecord([]string{""}, ','))
	assert.Equal(t, ",", FormatRecord([]string{"", ""}, ','))
}

func TestWriter_WritesLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, ',')

	require.NoError(t, w.Write([]string{"a", "b"}))
	require.NoError(t, w.Write([]string{"c d", `e"f`}))
	w.Flush()

	assert.NoError(t, w.Error())
	assert.Equal(t, "a,b\nc d,\"e\"\"f\"\n", buf.String())
}

func TestWriter_CRLF(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, ';')
	w.UseCRLF = true

	require.NoError(t, w.WriteAll([][]string{{"a", "b"}, {"c"}}))
	assert.Equal(t, "a;b\r\nc\r\n", buf.String())
}

func TestWriter_InvalidSeparator(t *testing.T) {
	w := NewWriter(&bytes.Buffer{}, '\n')
	assert.ErrorIs(t, w.Write([]string{"a"}), ErrInvalidDelim)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriter_ReportsFlushErrors(t *testing.T) {
	w := NewWriter(failingWriter{}, ',')
	require.NoError(t, w.Write([]string{"a"}))
	w.Flush()
	assert.EqualError(t, w.Error(), "disk full")
}

func TestWriter_RoundTrip(t *testing.T) {
	records := [][]string{
		{"id", "text", "note"},
		{"1", "has,comma", `has "quotes"`},
		{"2", "multi\nline\n\nfield", ""},
		{"3", " leading space", "ünï,cödé"},
		{""},
	}

	for _, sep := range []rune{',', ';', '\t', '|'} {
		var buf bytes.Buffer
		w := NewWriter(&buf, sep)
		require.NoError(t, w.WriteAll(records))

		s, err := NewReaderStream(&buf, WithSeparator(sep))
		require.NoError(t, err)

		rows, err := s.ReadAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, records, fieldsOf(rows), "separator %q", sep)
	}
}
