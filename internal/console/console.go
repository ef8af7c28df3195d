// Package console holds terminal capability flags consulted by output
// formatting code.
package console

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

var isTerminalFunc = term.IsTerminal

var unicodeAllowed atomic.Bool

func init() {
	unicodeAllowed.Store(true)
}

// ColoredOutputAllowed reports whether stdout is a terminal or TERM=ANSI.
func ColoredOutputAllowed() bool {
	return coloredOutputAllowed(os.Stdout, os.Getenv("TERM"))
}

func coloredOutputAllowed(f *os.File, termEnv string) bool {
	if f != nil && isTerminalFunc(int(f.Fd())) {
		return true
	}
	return termEnv == "ANSI"
}

func UnicodeAllowed() bool {
	return unicodeAllowed.Load()
}

func SetUnicodeAllowed(v bool) {
	unicodeAllowed.Store(v)
}

// Mark returns a short status glyph for ok, falling back to ASCII when
// unicode output is disabled.
func Mark(ok bool) string {
	switch {
	case ok && UnicodeAllowed():
		return "✓"
	case ok:
		return "ok"
	case UnicodeAllowed():
		return "✗"
	default:
		return "FAIL"
	}
}
