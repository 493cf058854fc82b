package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YLivay/gocsv/csv"
)

func TestRowFilter_SelectsObjects(t *testing.T) {
	filter, err := newRowFilter(`select(.age == "34") | .name`)
	require.NoError(t, err)

	columns := []string{"name", "age"}
	values, err := filter.Apply(context.Background(), csv.Row{Line: 2, Fields: []string{"Alice", "34"}, Columns: columns})
	assert.NoError(t, err)
	assert.Equal(t, []any{"Alice"}, values)

	values, err = filter.Apply(context.Background(), csv.Row{Line: 3, Fields: []string{"Bob", "24"}, Columns: columns})
	assert.NoError(t, err)
	assert.Empty(t, values)
}

func TestRowFilter_IndexesArrays(t *testing.T) {
	filter, err := newRowFilter(`.[1], .[0]`)
	require.NoError(t, err)

	values, err := filter.Apply(context.Background(), csv.Row{Line: 1, Fields: []string{"a", "b"}})
	assert.NoError(t, err)
	assert.Equal(t, []any{"b", "a"}, values)
}

func TestRowFilter_BindsLine(t *testing.T) {
	filter, err := newRowFilter(`{line: $line, first: .[0]}`)
	require.NoError(t, err)

	values, err := filter.Apply(context.Background(), csv.Row{Line: 7, Fields: []string{"x"}})
	assert.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"line": 7, "first": "x"}}, values)
}

func TestRowFilter_MissingColumnIsNull(t *testing.T) {
	filter, err := newRowFilter(`.age`)
	require.NoError(t, err)

	values, err := filter.Apply(context.Background(), csv.Row{Line: 1, Fields: []string{"Alice"}, Columns: []string{"name", "age"}})
	assert.NoError(t, err)
	assert.Equal(t, []any{nil}, values)
}

func TestRowFilter_InvalidExpression(t *testing.T) {
	_, err := newRowFilter(`.[`)
	assert.Error(t, err)

	_, err = newRowFilter(`$undefined`)
	assert.Error(t, err)
}

func TestRowFilter_RuntimeError(t *testing.T) {
	filter, err := newRowFilter(`.[0] + 1`)
	require.NoError(t, err)

	_, err = filter.Apply(context.Background(), csv.Row{Line: 4, Fields: []string{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 4")
}

func TestRowFilter_Halt(t *testing.T) {
	filter, err := newRowFilter(`.[0], halt, .[1]`)
	require.NoError(t, err)

	values, err := filter.Apply(context.Background(), csv.Row{Line: 1, Fields: []string{"a", "b"}})
	assert.NoError(t, err)
	assert.Equal(t, []any{"a"}, values)
}
