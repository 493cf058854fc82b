package csv

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/YLivay/gocsv/utils"
)

// LineSource supplies one line at a time, without its line terminator.
// ReadLine returns io.EOF once the input is exhausted, after which EOF
// reports true.
type LineSource interface {
	ReadLine() (string, error)
	EOF() bool
}

// Record is the list of fields of one row, in column order. An empty record
// stands for a line that produced no row, such as a comment.
type Record []string

// ParseRecord is ParseRecordAt with lineIndex equal to startLine.
func ParseRecord(line string, src LineSource, opts ReadOptions, startLine int) (Record, int, error) {
	return ParseRecordAt(line, src, opts, startLine, startLine)
}

// ParseRecordAt parses the record that starts with line. When a quoted field
// runs past the end of line, the following lines are pulled from src and the
// line breaks between them are kept in the field.
//
// startLine is the 1-indexed line the record starts on and lineIndex the index
// of line itself; both are only used for error positions. The returned int is
// the index of the last line the record used.
func ParseRecordAt(line string, src LineSource, opts ReadOptions, startLine, lineIndex int) (Record, int, error) {
	if err := opts.Validate(); err != nil {
		return nil, lineIndex, err
	}
	return parseRecord(line, src, &opts, startLine, lineIndex)
}

func parseRecord(line string, src LineSource, opts *ReadOptions, startLine, lineIndex int) (Record, int, error) {
	if line == "" {
		return Record{}, lineIndex, nil
	}
	if opts.Comment != 0 {
		if r, _ := utf8.DecodeRuneInString(line); r == opts.Comment {
			return Record{}, lineIndex, nil
		}
	}

	sep := string(opts.Separator)
	var buf strings.Builder
	var ends []int

	// pos is the byte offset of the unscanned rest of line. Every error column
	// is derived from it so that it always refers to the current line.
	pos := 0

parseField:
	for {
		if opts.TrimLeadingSpace {
			rest := line[pos:]
			pos += len(rest) - len(strings.TrimLeftFunc(rest, unicode.IsSpace))
		}

		if rest := line[pos:]; rest == "" || rest[0] != quote {
			// Non-quoted field.
			field := rest
			i := strings.Index(rest, sep)
			if i >= 0 {
				field = rest[:i]
			}
			if !opts.LazyQuotes {
				if j := strings.IndexByte(field, quote); j >= 0 {
					return nil, lineIndex, &ParseError{
						StartLine: startLine,
						Line:      lineIndex,
						Column:    utils.GraphemeOffset(line, pos+j),
						Err:       ErrBareQuote,
					}
				}
			}
			buf.WriteString(field)
			ends = append(ends, buf.Len())
			if i >= 0 {
				pos += i + len(sep)
				continue parseField
			}
			break parseField
		}

		// Quoted field.
		pos++
		for {
			rest := line[pos:]
			if i := strings.IndexByte(rest, quote); i >= 0 {
				buf.WriteString(rest[:i])
				quotePos := pos + i
				pos = quotePos + 1
				rest = line[pos:]

				switch {
				case strings.HasPrefix(rest, `"`):
					// `""` is an escaped quote.
					buf.WriteByte(quote)
					pos++
				case strings.HasPrefix(rest, sep):
					// `",` ends the field.
					pos += len(sep)
					ends = append(ends, buf.Len())
					continue parseField
				case rest == "":
					// `"` at the end of the line ends the record.
					ends = append(ends, buf.Len())
					break parseField
				case opts.LazyQuotes:
					buf.WriteByte(quote)
				default:
					return nil, lineIndex, &ParseError{
						StartLine: startLine,
						Line:      lineIndex,
						Column:    utils.GraphemeOffset(line, quotePos),
						Err:       ErrQuote,
					}
				}
				continue
			}

			if rest == "" && src.EOF() {
				// Input ended inside the quoted field.
				if !opts.LazyQuotes {
					return nil, lineIndex, unterminatedQuote(line, startLine, lineIndex)
				}
				ends = append(ends, buf.Len())
				break parseField
			}

			// The field continues on the next line.
			buf.WriteString(rest)
			next, err := src.ReadLine()
			if errors.Is(err, io.EOF) {
				if !opts.LazyQuotes {
					return nil, lineIndex, unterminatedQuote(line, startLine, lineIndex)
				}
				ends = append(ends, buf.Len())
				break parseField
			}
			if err != nil {
				return nil, lineIndex, fmt.Errorf("failed to read line %d: %w", lineIndex+1, err)
			}
			lineIndex++
			line, pos = next, 0
			buf.WriteByte('\n')
		}
	}

	record := make(Record, 0, len(ends))
	str := buf.String()
	prev := 0
	for _, end := range ends {
		record = append(record, str[prev:end])
		prev = end
	}
	return record, lineIndex, nil
}

func unterminatedQuote(line string, startLine, lineIndex int) *ParseError {
	return &ParseError{
		StartLine: startLine,
		Line:      lineIndex,
		Column:    utils.GraphemeLen(line),
		Err:       ErrQuote,
	}
}
