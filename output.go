package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/YLivay/gocsv/csv"
)

const (
	outputJSON = "json"
	outputCSV  = "csv"
)

// valueWriter prints the values produced for each row.
type valueWriter interface {
	WriteValue(v any) error
	Flush() error
}

func newValueWriter(format string, w io.Writer, sep rune, columns func() []string) (valueWriter, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return &jsonValueWriter{enc: enc}, nil
	case outputCSV:
		return &csvValueWriter{w: csv.NewWriter(w, sep), columns: columns}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q, expected %s or %s", format, outputJSON, outputCSV)
	}
}

// jsonValueWriter prints one JSON document per line.
type jsonValueWriter struct {
	enc *json.Encoder
}

func (w *jsonValueWriter) WriteValue(v any) error {
	return w.enc.Encode(v)
}

func (w *jsonValueWriter) Flush() error {
	return nil
}

// csvValueWriter prints arrays as records. Objects are printed in the order of
// the stream's columns, after a header line; keys that are not columns follow
// in sorted order.
type csvValueWriter struct {
	w           *csv.Writer
	columns     func() []string
	header      []string
	wroteHeader bool
}

func (w *csvValueWriter) WriteValue(v any) error {
	switch v := v.(type) {
	case []any:
		record := make([]string, len(v))
		for i, elem := range v {
			record[i] = stringify(elem)
		}
		return w.w.Write(record)

	case map[string]any:
		if !w.wroteHeader {
			w.header = objectHeader(w.columns(), v)
			w.wroteHeader = true
			if err := w.w.Write(w.header); err != nil {
				return err
			}
		}

		record := make([]string, len(w.header))
		for i, name := range w.header {
			if value, ok := v[name]; ok {
				record[i] = stringify(value)
			}
		}
		return w.w.Write(record)

	default:
		return w.w.Write([]string{stringify(v)})
	}
}

func (w *csvValueWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

func objectHeader(columns []string, obj map[string]any) []string {
	header := slices.Clone(columns)

	var extra []string
	for name := range obj {
		if !slices.Contains(header, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)

	return append(header, extra...)
}

// stringify renders a jq value as a single field.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
