package main

import (
	"strings"

	"github.com/YLivay/gocsv/csv"
	"github.com/YLivay/gocsv/utils"
)

const (
	fieldSeparator = " │ "
	lineBreakMark  = "↵"
)

var lineBreakReplacer = strings.NewReplacer("\r\n", lineBreakMark, "\n", lineBreakMark)

// record is a row as the viewer shows it.
type record struct {
	// Line of the input the row starts on.
	line int

	// The row rendered as a single line of text.
	text string

	// The text after it has been wrapped to fit the terminal's width. Always
	// holds at least one line.
	lines []string
}

func newRecord(row csv.Row, wrapWidth int) *record {
	r := &record{
		line: row.Line,
		text: formatFields(row.Fields),
	}
	r.wrap(wrapWidth)
	return r
}

func (r *record) wrap(width int) {
	r.lines = utils.WordWrap(r.text, width)
	if len(r.lines) == 0 {
		r.lines = []string{""}
	}
}

// formatFields joins fields for display. Line breaks inside fields are shown
// as a marker so that every row starts on a fresh screen line.
func formatFields(fields []string) string {
	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteString(fieldSeparator)
		}
		b.WriteString(lineBreakReplacer.Replace(field))
	}
	return b.String()
}
