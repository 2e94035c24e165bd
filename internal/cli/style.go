package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ANSI color codes for terminal styling.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[0;31m"
	ansiGreen  = "\033[0;32m"
	ansiYellow = "\033[1;33m"
	ansiCyan   = "\033[0;36m"
)

// painter colors text only when writing to a terminal.
type painter struct {
	enabled bool
}

func newPainter(w io.Writer) painter {
	return painter{enabled: isTerminalWriter(w) && os.Getenv("NO_COLOR") == ""}
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (p painter) paint(code, s string) string {
	if !p.enabled {
		return s
	}
	return fmt.Sprintf("%s%s%s", code, s, ansiReset)
}

func (p painter) red(s string) string    { return p.paint(ansiRed, s) }
func (p painter) green(s string) string  { return p.paint(ansiGreen, s) }
func (p painter) yellow(s string) string { return p.paint(ansiYellow, s) }
func (p painter) cyan(s string) string   { return p.paint(ansiCyan, s) }
func (p painter) dim(s string) string    { return p.paint(ansiDim, s) }
func (p painter) bold(s string) string   { return p.paint(ansiBold, s) }
