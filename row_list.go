package main

import "sync"

// rowList holds the rows the viewer has read so far, together with the
// position of the screen within them.
type rowList struct {
	mu   *sync.Mutex
	head *listRecord
	tail *listRecord

	// Pointer to the record that is currently at the top of the screen.
	screenTop *listRecord
	// A record may span multiple screen lines. This is the offset of the first
	// line within the record to render at the top of the screen.
	screenTopOffset int

	// Number of lines above the screen top, not including the screen top itself.
	linesAboveScreenTop int
	// Number of lines below the screen top, including the screen top itself.
	linesBelowScreenTop int
	// Total number of lines the records in the list span.
	linesTotal int
	// Number of records in the list.
	count int

	// If true, we're within a WithLock call. This will prevent the other
	// functions from attempting to lock the mutex.
	withinLock bool
}

type listRecord struct {
	record *record
	prev   *listRecord
	next   *listRecord
}

func newRowList() *rowList {
	return &rowList{
		mu: &sync.Mutex{},
	}
}

// WithLock runs f while holding the list's lock. Methods called on the list
// passed to f do not lock again.
func (l *rowList) WithLock(f func(*rowList) any) any {
	if l.withinLock {
		return f(l)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Construct a new instance that will not perform locks.
	unlockedInst := &rowList{
		head:                l.head,
		tail:                l.tail,
		screenTop:           l.screenTop,
		screenTopOffset:     l.screenTopOffset,
		linesAboveScreenTop: l.linesAboveScreenTop,
		linesBelowScreenTop: l.linesBelowScreenTop,
		linesTotal:          l.linesTotal,
		count:               l.count,
		withinLock:          true,
	}
	defer func() {
		// Assign back to the original instance.
		l.head = unlockedInst.head
		l.tail = unlockedInst.tail
		l.screenTop = unlockedInst.screenTop
		l.screenTopOffset = unlockedInst.screenTopOffset
		l.linesAboveScreenTop = unlockedInst.linesAboveScreenTop
		l.linesBelowScreenTop = unlockedInst.linesBelowScreenTop
		l.linesTotal = unlockedInst.linesTotal
		l.count = unlockedInst.count
	}()

	return f(unlockedInst)
}

// Append adds a record to the end of the list.
func (l *rowList) Append(r *record) {
	if !l.withinLock {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	newRecord := &listRecord{record: r}
	if l.head == nil {
		l.head = newRecord
		l.tail = newRecord
	} else {
		l.tail.next = newRecord
		newRecord.prev = l.tail
		l.tail = newRecord
	}

	if l.screenTop == nil {
		l.screenTop = newRecord
		l.screenTopOffset = 0
	}

	numLines := len(r.lines)
	l.linesBelowScreenTop += numLines
	l.linesTotal += numLines
	l.count++
}

// PopFirst removes the first record from the list and returns it.
//
// If the screen top is the same as the record being removed, the screen top is
// moved to the next record and the screen top offset is reset to 0.
func (l *rowList) PopFirst() *record {
	if !l.withinLock {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	head := l.head
	if head == nil {
		return nil
	}

	next := head.next
	l.head = next
	l.count--

	if next == nil {
		l.tail = nil
		l.screenTop = nil
		l.screenTopOffset = 0
		l.linesAboveScreenTop = 0
		l.linesBelowScreenTop = 0
		l.linesTotal = 0
		return head.record
	}

	if l.screenTop == head {
		l.linesAboveScreenTop -= l.screenTopOffset
		l.linesBelowScreenTop -= len(head.record.lines) - l.screenTopOffset
		l.screenTop = next
		l.screenTopOffset = 0
	} else {
		l.linesAboveScreenTop -= len(head.record.lines)
	}
	next.prev = nil
	l.linesTotal -= len(head.record.lines)

	return head.record
}

// Clear clears all the records from this list and resets the screen top and
// screen top offset.
func (l *rowList) Clear() {
	if !l.withinLock {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	l.head = nil
	l.tail = nil
	l.screenTop = nil
	l.screenTopOffset = 0
	l.linesAboveScreenTop = 0
	l.linesBelowScreenTop = 0
	l.linesTotal = 0
	l.count = 0
}

// Len returns the number of records in the list.
func (l *rowList) Len() int {
	if !l.withinLock {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	return l.count
}

// ScreenTopLine returns the input line of the record at the top of the screen,
// or 0 if the list is empty.
func (l *rowList) ScreenTopLine() int {
	if !l.withinLock {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	if l.screenTop == nil {
		return 0
	}
	return l.screenTop.record.line
}

// ScrollUp attempts to move the screen top up by the given number of lines.
//
// Returns the number of lines actually moved.
func (l *rowList) ScrollUp(lines int) int {
	if !l.withinLock {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	linesMoved := 0
	if l.screenTop == nil || lines <= 0 {
		return 0
	}

	nextScreenTop := l.screenTop
	for {
		if l.screenTopOffset >= lines {
			linesMoved += lines
			l.screenTopOffset -= lines
			l.screenTop = nextScreenTop
			l.linesAboveScreenTop -= linesMoved
			l.linesBelowScreenTop += linesMoved
			return linesMoved
		}

		if l.screenTopOffset > 0 {
			lines -= l.screenTopOffset
			linesMoved += l.screenTopOffset
			l.screenTopOffset = 0
		}

		if nextScreenTop.prev == nil {
			l.screenTop = nextScreenTop
			l.linesAboveScreenTop -= linesMoved
			l.linesBelowScreenTop += linesMoved
			return linesMoved
		}

		nextScreenTop = nextScreenTop.prev
		l.screenTopOffset = len(nextScreenTop.record.lines) - 1
		lines--
		linesMoved++
	}
}

// ScrollDown attempts to move the screen top down by the given number of lines.
//
// Returns the number of lines actually moved.
func (l *rowList) ScrollDown(lines int) int {
	if !l.withinLock {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	linesMoved := 0
	if l.screenTop == nil || lines <= 0 {
		return 0
	}

	nextScreenTop := l.screenTop
	for {
		linesLeftInRecord := len(nextScreenTop.record.lines) - l.screenTopOffset - 1
		if linesLeftInRecord >= lines {
			linesMoved += lines
			l.screenTopOffset += lines
			l.screenTop = nextScreenTop
			l.linesAboveScreenTop += linesMoved
			l.linesBelowScreenTop -= linesMoved
			return linesMoved
		}

		if linesLeftInRecord > 0 {
			lines -= linesLeftInRecord
			linesMoved += linesLeftInRecord
			l.screenTopOffset += linesLeftInRecord
		}

		if nextScreenTop.next == nil {
			l.screenTop = nextScreenTop
			l.linesAboveScreenTop += linesMoved
			l.linesBelowScreenTop -= linesMoved
			return linesMoved
		}

		nextScreenTop = nextScreenTop.next
		l.screenTopOffset = 0
		lines--
		linesMoved++
	}
}

// ScrollToTop moves the screen top to the first line of the list.
func (l *rowList) ScrollToTop() {
	l.WithLock(func(records *rowList) any {
		records.screenTop = records.head
		records.screenTopOffset = 0
		records.linesAboveScreenTop = 0
		records.linesBelowScreenTop = records.linesTotal
		return nil
	})
}

// ScrollToBottom attempts to move the screen top to the bottom of the list
// leaving the given height of lines on the screen.
func (l *rowList) ScrollToBottom(height int) {
	l.WithLock(func(records *rowList) any {
		if records.tail == nil {
			return nil
		}

		records.screenTop = records.tail
		records.screenTopOffset = len(records.tail.record.lines) - 1
		records.linesBelowScreenTop = 1
		records.linesAboveScreenTop = records.linesTotal - 1
		if height > 1 {
			records.ScrollUp(height - 1)
		}
		return nil
	})
}

// Rewrap wraps every record to the given width and keeps the screen top on the
// same record.
func (l *rowList) Rewrap(width int) {
	l.WithLock(func(records *rowList) any {
		records.linesAboveScreenTop = 0
		records.linesTotal = 0

		seenScreenTop := false
		for r := records.head; r != nil; r = r.next {
			r.record.wrap(width)
			numLines := len(r.record.lines)
			records.linesTotal += numLines

			if r == records.screenTop {
				seenScreenTop = true
				records.screenTopOffset = min(records.screenTopOffset, numLines-1)
				records.linesAboveScreenTop += records.screenTopOffset
			} else if !seenScreenTop {
				records.linesAboveScreenTop += numLines
			}
		}
		records.linesBelowScreenTop = records.linesTotal - records.linesAboveScreenTop
		return nil
	})
}

// CalcScreenLines calculates how many of the record's lines are above, on, and
// below the screen, given the screen's height.
//
// If the records list is empty, this function returns 0 for all three values.
func (l *rowList) CalcScreenLines(screenHeight int) (aboveScreen, onScreen, belowScreen int) {
	if !l.withinLock {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	aboveScreen = l.linesAboveScreenTop
	if l.linesBelowScreenTop <= screenHeight {
		onScreen = l.linesBelowScreenTop
		belowScreen = 0
	} else {
		onScreen = screenHeight
		belowScreen = l.linesBelowScreenTop - screenHeight
	}
	return
}

// GetLinesToRender returns the lines to render on the screen starting from screen top and screen top offset.
func (l *rowList) GetLinesToRender(lineCount int) []string {
	if !l.withinLock {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	result := make([]string, 0)
	if lineCount <= 0 {
		return result
	}

	offset := l.screenTopOffset
	for record := l.screenTop; record != nil; record = record.next {
		takeLines := len(record.record.lines) - offset
		if takeLines >= lineCount {
			result = append(result, record.record.lines[offset:offset+lineCount]...)
			break
		}

		result = append(result, record.record.lines[offset:]...)
		lineCount -= takeLines
		offset = 0
	}

	return result
}
