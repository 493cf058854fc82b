package main

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YLivay/gocsv/csv"
	"github.com/YLivay/gocsv/reader"
	"github.com/YLivay/gocsv/utils"
)

func createTestStream(t *testing.T, input string, opts ...csv.Option) *csv.Stream {
	t.Helper()

	stream, err := csv.NewReaderStream(strings.NewReader(input), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })
	return stream
}

func numberedRows(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "row%d,%d\n", i, i*10)
	}
	return b.String()
}

func TestBuffer_PopulatesScreenAndEagerLines(t *testing.T) {
	records := newRowList()
	buffer := NewBuffer(createTestStream(t, numberedRows(100)), records, 40, 5, false)
	buffer.SetEagerness(3, 0)

	ended, err := buffer.Populate(context.Background())
	assert.NoError(t, err)
	assert.False(t, ended)
	assert.Equal(t, 8, records.Len())

	lines := records.GetLinesToRender(2)
	assert.Equal(t, []string{"row1 │ 10", "row2 │ 20"}, lines)
}

func TestBuffer_ReadsMoreAfterScrolling(t *testing.T) {
	records := newRowList()
	buffer := NewBuffer(createTestStream(t, numberedRows(100)), records, 40, 5, false)
	buffer.SetEagerness(0, 0)

	_, err := buffer.Populate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, records.Len())

	records.ScrollDown(3)
	_, err = buffer.Populate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, records.Len())
}

func TestBuffer_StopsAtEndOfInput(t *testing.T) {
	records := newRowList()
	buffer := NewBuffer(createTestStream(t, "a\nb\n"), records, 40, 10, false)

	ended, err := buffer.Populate(context.Background())
	assert.NoError(t, err)
	assert.True(t, ended)
	assert.Equal(t, 2, records.Len())

	_, done, streamErr := buffer.State()
	assert.True(t, done)
	assert.NoError(t, streamErr)
}

func TestBuffer_KeepsStreamError(t *testing.T) {
	records := newRowList()
	buffer := NewBuffer(createTestStream(t, "a,b\nc\n", csv.WithFieldsPerRecord(0)), records, 40, 10, false)

	ended, err := buffer.Populate(context.Background())
	assert.NoError(t, err)
	assert.True(t, ended)
	assert.Equal(t, 1, records.Len())

	_, done, streamErr := buffer.State()
	assert.True(t, done)
	assert.ErrorIs(t, streamErr, csv.ErrFieldCount)
}

func TestBuffer_TracksColumns(t *testing.T) {
	records := newRowList()
	buffer := NewBuffer(createTestStream(t, "name,age\nAlice,34\n", csv.WithSkipFirstRow(true)), records, 40, 10, false)

	_, err := buffer.Populate(context.Background())
	require.NoError(t, err)

	columns, _, _ := buffer.State()
	assert.Equal(t, []string{"name", "age"}, columns)
}

func TestBuffer_FollowModePrunesHistory(t *testing.T) {
	f := utils.CreateTestFile(t, numberedRows(20))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := csv.NewStream(reader.NewLineScanner(f, reader.WithFollow(ctx, 5*time.Millisecond)))
	require.NoError(t, err)
	defer stream.Close()

	records := newRowList()
	buffer := NewBuffer(stream, records, 40, 2, true)
	buffer.SetEagerness(0, 4)

	appended := 0
	buffer.onChange = func() {
		appended++
		records.ScrollToBottom(2)
		if appended == 20 {
			cancel()
		}
	}

	err = buffer.Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 20, appended)

	// Two lines on screen, at most four above it.
	assert.LessOrEqual(t, records.Len(), 7)
	assert.Equal(t, []string{"row19 │ 190", "row20 │ 200"}, records.GetLinesToRender(2))
}

func TestBuffer_DemandNeverBlocks(t *testing.T) {
	buffer := NewBuffer(createTestStream(t, ""), newRowList(), 10, 10, false)
	for i := 0; i < 5; i++ {
		buffer.Demand()
	}
	assert.Len(t, buffer.demand, 1)
}
