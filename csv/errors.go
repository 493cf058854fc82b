package csv

import (
	"errors"
	"fmt"
)

var (
	// ErrBareQuote is reported when a quote appears inside a field that did
	// not start with a quote.
	ErrBareQuote = errors.New("bare \" in non-quoted-field")
	// ErrQuote is reported when a quoted field is never closed, or its closing
	// quote is followed by something other than a separator or the end of the
	// line.
	ErrQuote = errors.New("extraneous or missing \" in quoted-field")
	// ErrFieldCount is reported when a record does not have the expected
	// number of fields.
	ErrFieldCount = errors.New("wrong number of fields")
	// ErrInvalidDelim is reported for unusable separator or comment runes.
	ErrInvalidDelim = errors.New("invalid field or comment delimiter")
)

// NoColumn is the Column of errors that are not tied to a position in a line.
const NoColumn = -1

// ParseError describes a malformed record. Lines are 1-indexed; Column is the
// 0-indexed position in Line counted in user-perceived characters.
type ParseError struct {
	StartLine int // Line where the record starts
	Line      int // Line where the error was found
	Column    int // Column where the error was found, or NoColumn
	Err       error

	// Set for ErrFieldCount only.
	Expected int
	Actual   int
}

func (e *ParseError) Error() string {
	if errors.Is(e.Err, ErrFieldCount) {
		if e.Expected > 0 || e.Actual > 0 {
			return fmt.Sprintf("record on line %d: %v: expected %d but got %d", e.Line, e.Err, e.Expected, e.Actual)
		}
		return fmt.Sprintf("record on line %d: %v", e.Line, e.Err)
	}
	if e.StartLine != e.Line {
		return fmt.Sprintf("record on line %d; parse error on line %d, column %d: %v", e.StartLine, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newFieldCountError(line, expected, actual int) *ParseError {
	return &ParseError{
		StartLine: line,
		Line:      line,
		Column:    NoColumn,
		Err:       ErrFieldCount,
		Expected:  expected,
		Actual:    actual,
	}
}
