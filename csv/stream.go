package csv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/multierr"

	"github.com/YLivay/gocsv/log"
	"github.com/YLivay/gocsv/reader"
)

// Stream states. A stream waits for its first record, which may be the header,
// and then handles every following record the same way.
const (
	stateAwaitingFirstRow = "awaiting_first_row"
	stateSteady           = "steady"

	eventFirstRecord = "first_record"
)

var streamTransitions = fsm.Events{
	{Name: eventFirstRecord, Src: []string{stateAwaitingFirstRow}, Dst: stateSteady},
}

// Row is one record produced by a Stream.
type Row struct {
	// Line is the 1-indexed line the record starts on.
	Line   int
	Fields []string
	// Columns is the header the fields belong to. It is nil unless the
	// stream maps rows to column names.
	Columns []string
}

// Object maps column names to the fields of the row. Columns the record has no
// field for are left out. It returns nil for rows without columns.
func (r Row) Object() map[string]string {
	if r.Columns == nil {
		return nil
	}

	obj := make(map[string]string, len(r.Columns))
	for i, name := range r.Columns {
		if i >= len(r.Fields) {
			break
		}
		obj[name] = r.Fields[i]
	}
	return obj
}

// Value returns the field of the named column and whether the row has it.
func (r Row) Value(column string) (string, bool) {
	for i, name := range r.Columns {
		if name == column {
			if i < len(r.Fields) {
				return r.Fields[i], true
			}
			return "", false
		}
	}
	return "", false
}

type pullOutcome uint8

const (
	outcomeRecord pullOutcome = iota + 1
	outcomeSkip
	outcomeEOF
	outcomeError
)

type pullResult struct {
	Outcome pullOutcome
	Row     Row
	Err     error
}

// Stream reads records from a LineSource on demand. It is not safe for
// concurrent use, and it owns the source: the source is closed once the
// stream ends, fails or is closed.
type Stream struct {
	id      string
	src     LineSource
	cfg     Config
	machine *fsm.FSM
	log     *log.Logger

	header []string
	// The field count every record must have, or -1.
	width int
	// Index of the last line read from src.
	line int

	err    error
	closed bool
}

// NewStream returns a Stream reading from src.
func NewStream(src LineSource, opts ...Option) (*Stream, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		id:    uuid.NewString(),
		src:   src,
		cfg:   cfg,
		log:   log.Default(),
		width: -1,
	}
	if cfg.FieldsPerRecord > 0 {
		s.width = cfg.FieldsPerRecord
	}
	if cfg.Columns != nil {
		s.header = cfg.Columns
	}
	s.machine = fsm.NewFSM(stateAwaitingFirstRow, streamTransitions, fsm.Callbacks{
		"enter_" + stateSteady: func(_ context.Context, e *fsm.Event) {
			s.onFirstRecord(e.Args[0].(Record))
		},
	})

	s.log.Debugf("stream %s: opened (separator %q, fields per record %d, header mode %t)",
		s.id, cfg.Separator, cfg.FieldsPerRecord, cfg.HeaderMode())
	return s, nil
}

// NewReaderStream returns a Stream reading lines from r.
func NewReaderStream(r io.Reader, opts ...Option) (*Stream, error) {
	return NewStream(reader.NewLineScanner(r), opts...)
}

// Parse reads all rows from r.
func Parse(r io.Reader, opts ...Option) ([]Row, error) {
	s, err := NewReaderStream(r, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return s.ReadAll(context.Background())
}

// ID identifies the stream in log output.
func (s *Stream) ID() string {
	return s.id
}

// Columns returns the header rows are mapped to, or nil while there is none.
func (s *Stream) Columns() []string {
	return s.header
}

// Next returns the next row. It returns io.EOF when the input is exhausted. A
// parse error ends the stream: it is returned again from every later call.
func (s *Stream) Next(ctx context.Context) (Row, error) {
	if s.err != nil {
		return Row{}, s.err
	}
	if s.closed {
		return Row{}, io.EOF
	}

	for {
		if err := ctx.Err(); err != nil {
			return Row{}, err
		}

		res := s.pull(ctx)
		switch res.Outcome {
		case outcomeRecord:
			return res.Row, nil
		case outcomeSkip:
			continue
		case outcomeEOF:
			s.log.Debugf("stream %s: end of input after %d lines", s.id, s.line)
			if err := s.Close(); err != nil {
				s.log.Printf("stream %s: failed to close source: %v", s.id, err)
			}
			return Row{}, io.EOF
		default:
			s.err = res.Err
			s.log.Debugf("stream %s: %v", s.id, res.Err)
			if err := s.Close(); err != nil {
				s.log.Printf("stream %s: failed to close source: %v", s.id, err)
			}
			return Row{}, res.Err
		}
	}
}

// pull reads one record from the source. Lines that do not produce a row
// report outcomeSkip so that Next can loop instead of recursing.
func (s *Stream) pull(ctx context.Context) pullResult {
	line, err := s.src.ReadLine()
	if errors.Is(err, io.EOF) {
		return pullResult{Outcome: outcomeEOF}
	}
	if err != nil {
		return pullResult{Outcome: outcomeError, Err: fmt.Errorf("stream %s: failed to read line %d: %w", s.id, s.line+1, err)}
	}
	s.line++

	if line == "" {
		return pullResult{Outcome: outcomeSkip}
	}

	startLine := s.line
	record, endLine, err := parseRecord(line, s.src, &s.cfg.ReadOptions, startLine, startLine)
	s.line = endLine
	if err != nil {
		return pullResult{Outcome: outcomeError, Err: err}
	}
	if len(record) == 0 {
		return pullResult{Outcome: outcomeSkip}
	}

	consumed := false
	if s.machine.Is(stateAwaitingFirstRow) {
		if err := s.machine.Event(ctx, eventFirstRecord, record); err != nil {
			return pullResult{Outcome: outcomeError, Err: fmt.Errorf("stream %s: %w", s.id, err)}
		}
		consumed = s.cfg.SkipFirstRow
	}

	if s.width >= 0 && len(record) != s.width {
		return pullResult{Outcome: outcomeError, Err: newFieldCountError(startLine, s.width, len(record))}
	}
	if consumed {
		return pullResult{Outcome: outcomeSkip}
	}

	row := Row{Line: startLine, Fields: record}
	if s.cfg.HeaderMode() {
		if len(record) > len(s.header) {
			return pullResult{Outcome: outcomeError, Err: newFieldCountError(startLine, len(s.header), len(record))}
		}
		row.Columns = s.header
	}
	return pullResult{Outcome: outcomeRecord, Row: row}
}

// onFirstRecord runs when the stream leaves stateAwaitingFirstRow.
func (s *Stream) onFirstRecord(record Record) {
	if s.cfg.FieldsPerRecord == 0 {
		s.width = len(record)
		s.log.Debugf("stream %s: records must have %d fields", s.id, s.width)
	}
	if s.cfg.SkipFirstRow && s.cfg.Columns == nil {
		s.header = record
		s.log.Debugf("stream %s: header has %d columns", s.id, len(record))
	}
}

// All returns an iterator over the remaining rows. The iteration stops at the
// end of the input or after yielding an error. Stopping the loop early closes
// the stream.
func (s *Stream) All(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(row, err) {
				s.Close()
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// ReadAll reads the remaining rows. Rows read before an error are returned
// along with it.
func (s *Stream) ReadAll(ctx context.Context) ([]Row, error) {
	var rows []Row
	for row, err := range s.All(ctx) {
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close releases the source. Later calls to Next return io.EOF, or the error
// that ended the stream.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var result error
	if closer, ok := s.src.(io.Closer); ok {
		result = multierr.Append(result, closer.Close())
	}
	return result
}
