package main

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/YLivay/gocsv/csv"
	"github.com/YLivay/gocsv/log"
)

const (
	defaultFwdEager = 200
	defaultHistory  = 10000
)

// Buffer moves rows from a stream into the viewer's row list. It only reads
// while the list is short of lines below the screen, so a large input is never
// read further than the user has scrolled.
type Buffer struct {
	// Mutex to serialize access to the fields below the stream.
	mu *sync.Mutex

	stream  *csv.Stream
	records *rowList

	// Signalled whenever the screen moved and more rows may be needed.
	demand chan struct{}
	// Called after rows were added or the stream ended.
	onChange func()

	width  int
	height int

	// In follow mode the buffer reads everything as it arrives.
	followMode bool
	// How many lines to eagerly preload ahead of the bottom of the screen.
	fwdEager int
	// How many lines to keep above the screen in follow mode. 0 keeps all.
	history int

	columns []string
	done    bool
	err     error
}

func NewBuffer(stream *csv.Stream, records *rowList, width, height int, followMode bool) *Buffer {
	return &Buffer{
		mu:         &sync.Mutex{},
		stream:     stream,
		records:    records,
		demand:     make(chan struct{}, 1),
		onChange:   func() {},
		width:      width,
		height:     height,
		followMode: followMode,
		fwdEager:   defaultFwdEager,
		history:    defaultHistory,
	}
}

func (b *Buffer) setLocks() func() {
	b.mu.Lock()

	return func() {
		b.mu.Unlock()
	}
}

// SetEagerness sets how many lines to read ahead of the screen and how many
// to keep behind it in follow mode.
func (b *Buffer) SetEagerness(fwdEager, history int) {
	unlock := b.setLocks()
	defer unlock()

	b.fwdEager = max(fwdEager, 0)
	b.history = max(history, 0)
}

// Resize updates the screen dimensions used to decide how much to read.
func (b *Buffer) Resize(width, height int) {
	unlock := b.setLocks()
	b.width, b.height = width, height
	unlock()

	b.Demand()
}

// Demand asks the buffer to check whether it needs more rows. It never blocks.
func (b *Buffer) Demand() {
	select {
	case b.demand <- struct{}{}:
	default:
	}
}

// State returns the header of the stream, whether it ended and the error
// that ended it, if any.
func (b *Buffer) State() (columns []string, done bool, err error) {
	unlock := b.setLocks()
	defer unlock()

	return b.columns, b.done, b.err
}

// Run fills the buffer until the stream ends or ctx is done. A stream error
// does not fail Run; it is kept for State.
func (b *Buffer) Run(ctx context.Context) error {
	for {
		ended, err := b.Populate(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ended {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-b.demand:
		}
	}
}

// Populate reads rows until the list has enough lines below the screen. It
// reports whether the stream has ended.
func (b *Buffer) Populate(ctx context.Context) (ended bool, err error) {
	for b.linesToRead() > 0 {
		row, err := b.stream.Next(ctx)
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if err != nil {
			unlock := b.setLocks()
			b.done = true
			if !errors.Is(err, io.EOF) {
				b.err = err
				log.Debugf("viewer: stream %s failed: %v", b.stream.ID(), err)
			}
			unlock()

			b.onChange()
			return true, nil
		}

		unlock := b.setLocks()
		b.columns = b.stream.Columns()
		width := b.width
		unlock()

		b.records.Append(newRecord(row, width))
		b.prune()
		b.onChange()
	}

	return false, nil
}

// linesToRead calculates how many lines the buffer should read below its
// current position. Note: lines, not records.
func (b *Buffer) linesToRead() int {
	unlock := b.setLocks()
	defer unlock()

	if b.followMode {
		// In follow mode we are interested in reading all available input as fast
		// as possible below the screen.
		return 1
	}

	// Otherwise read enough to fill the screen, plus the eager margin below it.
	_, onScreen, belowScreen := b.records.CalcScreenLines(b.height)
	return b.height - onScreen + max(b.fwdEager-belowScreen, 0)
}

// prune drops the oldest rows once more than the history is kept above the
// screen. Only follow mode prunes, since dropped rows cannot be read again.
func (b *Buffer) prune() int {
	unlock := b.setLocks()
	history, followMode := b.history, b.followMode
	unlock()

	if !followMode || history == 0 {
		return 0
	}

	result := b.records.WithLock(func(records *rowList) any {
		pruned := 0
		aboveScreen, _, _ := records.CalcScreenLines(0)
		for records.head != nil && records.head != records.screenTop {
			recordLines := len(records.head.record.lines)
			if aboveScreen-recordLines < history {
				break
			}
			records.PopFirst()
			aboveScreen -= recordLines
			pruned++
		}
		return pruned
	})

	return result.(int)
}
