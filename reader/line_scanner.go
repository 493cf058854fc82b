package reader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// ErrClosed is returned when reading from a LineScanner after Close.
var ErrClosed = errors.New("line scanner is closed")

const (
	DefaultMaxLineSize  = 1024 * 1024
	DefaultPollInterval = 250 * time.Millisecond
)

// LineScanner reads a text input one line at a time. It decodes the input as
// UTF-8 (dropping a leading byte order mark) and hands out lines without their
// line terminator.
//
// The scanner can keep reading after it hits EOF: a partial line at the end of
// the input is held back until its newline shows up, which makes it usable on
// files that are still being written to.
type LineScanner struct {
	*bufio.Scanner
	r           io.Reader
	closer      io.Closer
	token       []byte
	isCarryOver bool

	maxLineSize  int
	follow       bool
	ctx          context.Context
	pollInterval time.Duration

	// Number of lines handed out by ReadLine.
	lines  int
	eof    bool
	closed bool
}

type Option func(*LineScanner)

// WithContext makes ReadLine return ctx.Err() once ctx is done, even while it
// waits on a reader that has no data yet.
func WithContext(ctx context.Context) Option {
	return func(s *LineScanner) {
		s.ctx = ctx
	}
}

// WithFollow makes ReadLine wait for more input instead of reporting EOF. The
// input is polled every interval until ctx is done.
func WithFollow(ctx context.Context, interval time.Duration) Option {
	return func(s *LineScanner) {
		s.follow = true
		s.ctx = ctx
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithMaxLineSize sets the longest physical line the scanner accepts.
func WithMaxLineSize(size int) Option {
	return func(s *LineScanner) {
		if size > 0 {
			s.maxLineSize = size
		}
	}
}

func NewLineScanner(reader io.Reader, opts ...Option) *LineScanner {
	scanner := &LineScanner{
		r:            reader,
		token:        make([]byte, 0),
		isCarryOver:  false,
		maxLineSize:  DefaultMaxLineSize,
		pollInterval: DefaultPollInterval,
	}
	if closer, ok := reader.(io.Closer); ok {
		scanner.closer = closer
	}
	for _, opt := range opts {
		opt(scanner)
	}
	if scanner.ctx != nil {
		scanner.r = newContextReader(scanner.ctx, reader)
	} else {
		scanner.ctx = context.Background()
	}
	scanner.initInternalScanner()
	return scanner
}

func (s *LineScanner) initInternalScanner() {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, min(64*1024, s.maxLineSize)), s.maxLineSize)
	scanner.Split(scanLines)
	s.Scanner = scanner
}

// Scan advances to the next complete line. It returns false when the input has
// no complete line left, either because of an error or because the remaining
// bytes do not end with a newline yet. Those bytes are kept and prefixed to the
// line returned by a later Scan.
func (s *LineScanner) Scan() bool {
	res := s.Scanner.Scan()

	// Make sure to reset our token if we're not carrying over.
	if !s.isCarryOver {
		s.token = nil
	}

	// The scanner may reach an actual EOF if it is the very first read
	// attempt of this scanner, or if the previous read ended EXACTLY on EOF
	// (which means the current one read 0 bytes).
	if !res {
		if s.Scanner.Err() == nil {
			s.initInternalScanner()
		}
		return false
	}

	b := s.Scanner.Bytes()
	if len(b) != 0 {
		if s.isCarryOver {
			s.token = append(s.token, b...)
		} else {
			s.token = append(make([]byte, 0, len(b)), b...)
		}

		// A token without a trailing newline is the last one the current
		// scanner can read. Save it and start over so that data appended
		// after this EOF is picked up by the next scan.
		if b[len(b)-1] != '\n' {
			s.isCarryOver = true
			s.initInternalScanner()
			return false
		}

		s.isCarryOver = false
		s.token = s.token[:len(s.token)-1]
	}

	return true
}

func (s *LineScanner) Bytes() []byte {
	if s.isCarryOver {
		return nil
	}

	return s.token
}

func (s *LineScanner) Text() string {
	if s.isCarryOver {
		return ""
	}

	return string(s.token)
}

// ReadLine returns the next line with its line terminator removed, including a
// trailing carriage return left over from CRLF input. At the end of the input
// it returns io.EOF, unless the scanner follows the input, in which case it
// waits for more data.
func (s *LineScanner) ReadLine() (string, error) {
	for {
		if s.closed {
			return "", ErrClosed
		}
		if s.eof {
			return "", io.EOF
		}

		if s.Scan() {
			return s.decodeLine(s.Text()), nil
		}
		if err := s.Scanner.Err(); err != nil {
			return "", err
		}

		if !s.follow {
			s.eof = true
			if !s.isCarryOver {
				return "", io.EOF
			}

			// Flush the partial last line; the next call reports EOF.
			line := string(s.token)
			s.token = nil
			s.isCarryOver = false
			return s.decodeLine(line), nil
		}

		select {
		case <-s.ctx.Done():
			return "", s.ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// EOF reports whether ReadLine has reached the end of the input.
func (s *LineScanner) EOF() bool {
	return s.eof || s.closed
}

// Close stops the scanner and closes the underlying reader when it is an
// io.Closer. It is safe to call more than once.
func (s *LineScanner) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.token = nil
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// decodeLine drops the carriage return of CRLF input, a byte order mark at the
// very start of the input, and replaces invalid UTF-8 with U+FFFD. It works
// per line so reading can continue past EOF.
func (s *LineScanner) decodeLine(line string) string {
	first := s.lines == 0
	s.lines++

	line = stripLastCR(line)
	if !first && utf8.ValidString(line) {
		return line
	}

	decoder := unicode.UTF8.NewDecoder()
	if first {
		decoder = unicode.UTF8BOM.NewDecoder()
	}
	decoded, err := decoder.String(line)
	if err != nil {
		return line
	}
	return decoded
}

func stripLastCR(line string) string {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

// Modified from bufio.ScanLines to not drop carriage returns and to return the
// newline character itself. This lets us differentiate between a line that is
// returned because it has a newline character and a line that is returned
// because it reached EOF.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		// We have a full newline-terminated line.
		return i + 1, data[0 : i+1], nil
	}
	// If we're at EOF, we have a final, non-terminated line. Return it.
	if atEOF {
		return len(data), data, nil
	}
	// Request more data.
	return 0, nil, nil
}
