package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
	"golang.org/x/sync/errgroup"

	"github.com/YLivay/gocsv/csv"
	"github.com/YLivay/gocsv/log"
)

var (
	headerStyle = tcell.StyleDefault.Bold(true).Reverse(true)
	statusStyle = tcell.StyleDefault.Reverse(true)
	errorStyle  = tcell.StyleDefault.Foreground(tcell.ColorRed).Reverse(true)
)

type Application struct {
	stream *csv.Stream

	// If true, keep reading as the input grows and stick to the bottom.
	followMode bool
	// If true, new rows scroll the screen to the bottom.
	tailing bool

	// The width of the terminal
	width int
	// The height of the terminal
	height int

	screen  tcell.Screen
	records *rowList
	buffer  *Buffer
}

func NewApplication(stream *csv.Stream, followMode bool) *Application {
	application := &Application{
		stream:     stream,
		followMode: followMode,
		tailing:    followMode,
		records:    newRowList(),
	}

	return application
}

// bodyHeight is the number of screen lines available for rows, between the
// header bar and the status line.
func (a *Application) bodyHeight() int {
	return max(a.height-2, 0)
}

// attach binds the application to an initialized screen.
func (a *Application) attach(screen tcell.Screen) {
	a.screen = screen
	a.width, a.height = screen.Size()
	a.buffer = NewBuffer(a.stream, a.records, a.width, a.bodyHeight(), a.followMode)
	a.buffer.onChange = func() {
		// Wake the event loop so it redraws.
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

// Run shows the stream on screen until the user quits or ctx is done. The
// screen must be initialized; finalizing it is up to the caller. The error
// that ended the stream, if any, is returned once the user quits.
func (a *Application) Run(ctx context.Context, cancelCtx context.CancelFunc, screen tcell.Screen) error {
	if a.buffer == nil {
		a.attach(screen)
	}

	oldRawMode := log.Default().RawMode()
	log.Default().SetRawMode(true)
	defer log.Default().SetRawMode(oldRawMode)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.buffer.Run(gctx)
	})

	g.Go(func() error {
		// PollEvent blocks, so post an event to let the loop see ctx is done.
		<-gctx.Done()
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
		return nil
	})

	g.Go(func() error {
		defer cancelCtx()
		return a.eventLoop(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	_, _, streamErr := a.buffer.State()
	return streamErr
}

func (a *Application) eventLoop(ctx context.Context) error {
	for {
		// Update screen
		a.draw()

		// Poll event
		ev := a.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}

		// Process event
		switch ev := ev.(type) {
		case *tcell.EventResize:
			a.resize()
			a.screen.Sync()
		case *tcell.EventKey:
			if a.handleKey(ev) {
				log.Debugf("viewer: quit requested")
				return nil
			}
		case *tcell.EventInterrupt:
			if a.tailing {
				a.records.ScrollToBottom(a.bodyHeight())
			}
		}
	}
}

func (a *Application) resize() {
	a.width, a.height = a.screen.Size()
	a.buffer.Resize(a.width, a.bodyHeight())
	a.records.Rewrap(a.width)
	if a.tailing {
		a.records.ScrollToBottom(a.bodyHeight())
	}
}

// handleKey applies a key press and reports whether the user asked to quit.
func (a *Application) handleKey(ev *tcell.EventKey) (quit bool) {
	page := max(a.bodyHeight()-1, 1)

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		a.scrollUp(1)
	case tcell.KeyDown, tcell.KeyEnter:
		a.scrollDown(1)
	case tcell.KeyPgUp, tcell.KeyCtrlB:
		a.scrollUp(page)
	case tcell.KeyPgDn, tcell.KeyCtrlF:
		a.scrollDown(page)
	case tcell.KeyHome:
		a.scrollToTop()
	case tcell.KeyEnd:
		a.scrollToBottom()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'k':
			a.scrollUp(1)
		case 'j':
			a.scrollDown(1)
		case 'b':
			a.scrollUp(page)
		case ' ', 'f':
			a.scrollDown(page)
		case 'g':
			a.scrollToTop()
		case 'G':
			a.scrollToBottom()
		}
	}

	return false
}

func (a *Application) scrollUp(lines int) {
	if a.records.ScrollUp(lines) > 0 {
		a.tailing = false
	}
}

func (a *Application) scrollDown(lines int) {
	body := a.bodyHeight()
	a.records.WithLock(func(records *rowList) any {
		records.ScrollDown(lines)

		// Keep the screen filled when the end of the list is reached.
		if _, onScreen, _ := records.CalcScreenLines(body); onScreen < body {
			records.ScrollUp(body - onScreen)
		}
		return nil
	})

	_, _, belowScreen := a.records.CalcScreenLines(body)
	a.tailing = a.followMode && belowScreen == 0
	a.buffer.Demand()
}

func (a *Application) scrollToTop() {
	a.records.ScrollToTop()
	a.tailing = false
}

func (a *Application) scrollToBottom() {
	a.records.ScrollToBottom(a.bodyHeight())
	a.tailing = a.followMode
	a.buffer.Demand()
}

func (a *Application) draw() {
	a.screen.Clear()

	columns, done, err := a.buffer.State()

	if a.height > 0 {
		header := "line"
		if columns != nil {
			header = formatFields(columns)
		}
		a.drawLine(0, header, headerStyle)
	}

	for i, line := range a.records.GetLinesToRender(a.bodyHeight()) {
		a.drawLine(1+i, line, tcell.StyleDefault)
	}

	if a.height > 1 {
		status, style := a.statusText(done, err), statusStyle
		if err != nil {
			style = errorStyle
		}
		a.drawLine(a.height-1, status, style)
	}

	a.screen.Show()
}

func (a *Application) statusText(done bool, err error) string {
	var parts []string
	if line := a.records.ScreenTopLine(); line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", line))
	}
	parts = append(parts, fmt.Sprintf("%d rows", a.records.Len()))

	switch {
	case err != nil:
		parts = append(parts, err.Error())
	case done:
		parts = append(parts, "(END)")
	case a.followMode:
		parts = append(parts, "following")
	}

	return strings.Join(parts, "  ")
}

// drawLine draws text on row y, one grapheme cluster per cell run, and pads the
// rest of the row with spaces in the same style.
func (a *Application) drawLine(y int, text string, style tcell.Style) {
	x := 0
	state := -1
	for text != "" && x < a.width {
		var cluster string
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)
		if width == 0 {
			continue
		}
		if x+width > a.width {
			break
		}

		runes := []rune(cluster)
		a.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += width
	}

	if style != tcell.StyleDefault {
		for ; x < a.width; x++ {
			a.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}
