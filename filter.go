package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/YLivay/gocsv/csv"
)

// rowFilter runs a jq expression against every row. The row is the input
// value: an array of fields, or an object in header mode. $line holds the line
// the row starts on.
type rowFilter struct {
	expr string
	code *gojq.Code
}

func newRowFilter(expr string) (*rowFilter, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}

	code, err := gojq.Compile(query, gojq.WithVariables([]string{"$line"}))
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", expr, err)
	}

	return &rowFilter{expr: expr, code: code}, nil
}

// Apply returns every value the filter emits for row. A filter that emits
// nothing drops the row.
func (f *rowFilter) Apply(ctx context.Context, row csv.Row) ([]any, error) {
	var out []any

	iter := f.code.RunWithContext(ctx, rowValue(row), row.Line)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, ok := v.(error); ok {
			var haltErr *gojq.HaltError
			if errors.As(err, &haltErr) && haltErr.Value() == nil {
				break
			}
			return nil, fmt.Errorf("filter failed on line %d: %w", row.Line, err)
		}
		out = append(out, v)
	}

	return out, nil
}

// rowValue converts row into the types gojq works with.
func rowValue(row csv.Row) any {
	if row.Columns == nil {
		fields := make([]any, len(row.Fields))
		for i, field := range row.Fields {
			fields[i] = field
		}
		return fields
	}

	obj := make(map[string]any, len(row.Columns))
	for name, value := range row.Object() {
		obj[name] = value
	}
	return obj
}
