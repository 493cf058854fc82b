package main

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/spf13/pflag"

	"github.com/YLivay/gocsv/csv"
	"github.com/YLivay/gocsv/reader"
)

// config holds the flags shared by all commands.
type config struct {
	Separator        string
	Comment          string
	TrimLeadingSpace bool
	LazyQuotes       bool
	FieldsPerRecord  int
	SkipFirstRow     bool
	Columns          []string

	Follow       bool
	PollInterval time.Duration
	MaxLineSize  int

	Verbose bool
	LogFile string
}

func (c *config) bindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Separator, "separator", "s", ",", `Field separator, a single character or "\t"`)
	fs.StringVar(&c.Comment, "comment", "", "Skip lines starting with this character")
	fs.BoolVar(&c.TrimLeadingSpace, "trim-leading-space", false, "Trim leading white space of every field")
	fs.BoolVar(&c.LazyQuotes, "lazy-quotes", false, "Allow quotes in unquoted fields and single quotes in quoted fields")
	fs.IntVar(&c.FieldsPerRecord, "fields-per-record", -1, "Expected fields per record: 0 takes it from the first record, negative disables the check")
	fs.BoolVar(&c.SkipFirstRow, "skip-first-row", false, "Treat the first record as the header")
	fs.StringSliceVar(&c.Columns, "columns", nil, "Column names, e.g. name,age")
	fs.BoolVarP(&c.Follow, "follow", "f", false, "Keep reading as the input grows")
	fs.DurationVar(&c.PollInterval, "poll-interval", reader.DefaultPollInterval, "How often to check for new input in follow mode")
	fs.IntVar(&c.MaxLineSize, "max-line-size", reader.DefaultMaxLineSize, "Longest line accepted, in bytes")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "Log debug output")
	fs.StringVar(&c.LogFile, "log-file", "", "Write logs to this file instead of stderr")
}

// streamOptions translates the flags into stream options.
func (c *config) streamOptions() ([]csv.Option, error) {
	sep, err := parseRuneFlag("separator", c.Separator)
	if err != nil {
		return nil, err
	}
	if sep == 0 {
		return nil, errors.New("separator must not be empty")
	}

	comment, err := parseRuneFlag("comment", c.Comment)
	if err != nil {
		return nil, err
	}

	readOpts := csv.ReadOptions{
		Separator:        sep,
		Comment:          comment,
		TrimLeadingSpace: c.TrimLeadingSpace,
		LazyQuotes:       c.LazyQuotes,
		FieldsPerRecord:  c.FieldsPerRecord,
	}
	return []csv.Option{
		csv.WithReadOptions(readOpts),
		csv.WithSkipFirstRow(c.SkipFirstRow),
		csv.WithColumns(c.Columns...),
	}, nil
}

// scannerOptions translates the flags into line scanner options. Reading stops
// once ctx is done, also while waiting on idle stdin.
func (c *config) scannerOptions(ctx context.Context) []reader.Option {
	opts := []reader.Option{reader.WithContext(ctx), reader.WithMaxLineSize(c.MaxLineSize)}
	if c.Follow {
		opts = append(opts, reader.WithFollow(ctx, c.PollInterval))
	}
	return opts
}

// parseRuneFlag accepts a single character or one of the escapes \t, \s and
// "tab". An empty value yields 0.
func parseRuneFlag(name, value string) (rune, error) {
	switch value {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	case `\s`, "space":
		return ' ', nil
	}

	r, size := utf8.DecodeRuneInString(value)
	if size != len(value) || r == utf8.RuneError {
		return 0, fmt.Errorf("--%s must be a single character, got %q", name, value)
	}
	return r, nil
}
