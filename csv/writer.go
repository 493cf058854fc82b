package csv

import (
	"bufio"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Writer writes records that ParseRecord reads back unchanged, as long as no
// field contains a carriage return.
type Writer struct {
	Separator rune
	// UseCRLF ends lines with \r\n instead of \n.
	UseCRLF bool

	w *bufio.Writer
}

// NewWriter returns a Writer that separates fields with sep.
func NewWriter(w io.Writer, sep rune) *Writer {
	return &Writer{
		Separator: sep,
		w:         bufio.NewWriter(w),
	}
}

// Write writes a single record. Output is buffered; call Flush to make sure it
// reaches the underlying writer.
func (w *Writer) Write(record []string) error {
	if !validDelim(w.Separator) {
		return ErrInvalidDelim
	}

	if _, err := w.w.WriteString(FormatRecord(record, w.Separator)); err != nil {
		return err
	}

	if w.UseCRLF {
		_, err := w.w.WriteString("\r\n")
		return err
	}
	return w.w.WriteByte('\n')
}

// WriteAll writes all records and flushes.
func (w *Writer) WriteAll(records [][]string) error {
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.w.Flush()
}

// Flush writes any buffered data. Check Error for failures.
func (w *Writer) Flush() {
	w.w.Flush()
}

// Error reports any error from a previous Write or Flush.
func (w *Writer) Error() error {
	_, err := w.w.Write(nil)
	return err
}

// FormatRecord returns record as a single line without a terminator.
func FormatRecord(record []string, sep rune) string {
	// A lone empty field would otherwise produce an empty line, which reads
	// back as no record at all.
	if len(record) == 1 && record[0] == "" {
		return `""`
	}

	var b strings.Builder
	for i, field := range record {
		if i > 0 {
			b.WriteRune(sep)
		}
		b.WriteString(QuoteField(field, sep))
	}
	return b.String()
}

// QuoteField returns field quoted if it has to be, with quotes doubled.
func QuoteField(field string, sep rune) string {
	if !fieldNeedsQuotes(field, sep) {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func fieldNeedsQuotes(field string, sep rune) bool {
	if field == "" {
		return false
	}
	if strings.ContainsRune(field, sep) || strings.ContainsAny(field, "\"\r\n") {
		return true
	}

	r, _ := utf8.DecodeRuneInString(field)
	return unicode.IsSpace(r)
}
