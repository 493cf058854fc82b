package main

import (
	"errors"
	"os"

	"golang.org/x/term"
)

// ensureTerminal fails unless stdout is a terminal the viewer can draw on.
func ensureTerminal() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the viewer needs a terminal, use the parse command to print rows instead")
	}
	return nil
}

// stdinIsTerminal reports whether stdin is interactive, in which case it
// cannot be the input of the viewer: key presses are read from the terminal.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
