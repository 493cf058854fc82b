// Package csv parses comma separated values one record at a time from a
// source of text lines.
//
// ParseRecord turns a single line, plus any further lines a quoted field
// spans, into a Record. Stream wraps a line source and yields records or
// header-mapped rows on demand, checking that every record has the same
// width when asked to.
package csv

import (
	"unicode/utf8"
)

const quote = '"'

// ReadOptions controls how records are split into fields.
type ReadOptions struct {
	// Separator is the field delimiter.
	Separator rune
	// Comment, if not 0, marks lines to ignore. Only lines starting with it
	// are comments; with leading white space the rune is part of the field,
	// even when TrimLeadingSpace is set.
	Comment rune
	// TrimLeadingSpace trims leading white space of every field, even if the
	// separator is white space itself.
	TrimLeadingSpace bool
	// LazyQuotes allows a quote in an unquoted field, and a quote in a quoted
	// field that is not doubled.
	LazyQuotes bool
	// FieldsPerRecord is the expected number of fields per record. If
	// positive, every record must have exactly that many fields. If 0, the
	// first record sets the width for the rest. If negative, records may
	// have any number of fields.
	FieldsPerRecord int
}

// DefaultReadOptions returns comma separated options with no comment rune and
// no field count checks.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		Separator:       ',',
		FieldsPerRecord: -1,
	}
}

// Validate checks that the separator and comment runes can be told apart from
// quotes, line breaks and each other.
func (o *ReadOptions) Validate() error {
	if !validDelim(o.Separator) {
		return ErrInvalidDelim
	}
	if o.Comment != 0 && (!validDelim(o.Comment) || o.Comment == o.Separator) {
		return ErrInvalidDelim
	}
	return nil
}

func validDelim(r rune) bool {
	return r != 0 && r != quote && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

// Config is the configuration of a Stream.
type Config struct {
	ReadOptions

	// SkipFirstRow consumes the first record instead of emitting it. Without
	// Columns, that record becomes the header.
	SkipFirstRow bool
	// Columns names the fields of every record. It takes precedence over a
	// header read with SkipFirstRow.
	Columns []string
}

// HeaderMode reports whether rows are mapped to column names.
func (c *Config) HeaderMode() bool {
	return c.SkipFirstRow || c.Columns != nil
}

// DefaultConfig returns DefaultReadOptions with no header handling.
func DefaultConfig() Config {
	return Config{ReadOptions: DefaultReadOptions()}
}

// Option configures a Stream.
type Option func(*Config)

// WithSeparator sets the field delimiter.
func WithSeparator(sep rune) Option {
	return func(c *Config) {
		c.Separator = sep
	}
}

// WithComment sets the comment rune. 0 disables comments.
func WithComment(comment rune) Option {
	return func(c *Config) {
		c.Comment = comment
	}
}

// WithTrimLeadingSpace sets ReadOptions.TrimLeadingSpace.
func WithTrimLeadingSpace(trim bool) Option {
	return func(c *Config) {
		c.TrimLeadingSpace = trim
	}
}

// WithLazyQuotes sets ReadOptions.LazyQuotes.
func WithLazyQuotes(lazy bool) Option {
	return func(c *Config) {
		c.LazyQuotes = lazy
	}
}

// WithFieldsPerRecord sets ReadOptions.FieldsPerRecord.
func WithFieldsPerRecord(n int) Option {
	return func(c *Config) {
		c.FieldsPerRecord = n
	}
}

// WithSkipFirstRow sets Config.SkipFirstRow.
func WithSkipFirstRow(skip bool) Option {
	return func(c *Config) {
		c.SkipFirstRow = skip
	}
}

// WithColumns sets the header names. A nil or empty list leaves rows
// unmapped.
func WithColumns(columns ...string) Option {
	return func(c *Config) {
		if len(columns) == 0 {
			c.Columns = nil
			return
		}
		c.Columns = append([]string(nil), columns...)
	}
}

// WithReadOptions replaces all ReadOptions at once.
func WithReadOptions(opts ReadOptions) Option {
	return func(c *Config) {
		c.ReadOptions = opts
	}
}

func newConfig(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
