package reader

import "io"

// StringsSource hands out a fixed list of lines. Lines are used as given
// except for a trailing carriage return, which is removed.
type StringsSource struct {
	lines  []string
	next   int
	closed bool
}

func NewStringsSource(lines ...string) *StringsSource {
	return &StringsSource{lines: lines}
}

func (s *StringsSource) ReadLine() (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	if s.next >= len(s.lines) {
		s.next = len(s.lines) + 1
		return "", io.EOF
	}

	line := s.lines[s.next]
	s.next++
	return stripLastCR(line), nil
}

// EOF reports whether ReadLine has already returned io.EOF.
func (s *StringsSource) EOF() bool {
	return s.closed || s.next > len(s.lines)
}

func (s *StringsSource) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *StringsSource) Closed() bool {
	return s.closed
}
