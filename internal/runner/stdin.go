package runner

import (
	"os"

	"github.com/chainreactors/logs"
	"golang.org/x/term"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

// startStdinToggle puts the terminal in raw mode and toggles the returned
// pauser on Enter or Space. Ctrl+C restores the terminal and re-raises the
// interrupt. When stdin is not a terminal it returns a nil pauser.
func startStdinToggle() (*scanner.Pauser, func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, func() {}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logs.Log.Warnf("could not enable raw terminal: %v", err)
		return nil, func() {}
	}
	// Raw mode also turns off output post-processing; restore it so
	// newlines keep returning the carriage.
	fixOutputProcessing(fd)

	pauser := scanner.NewPauser()
	cleanup := func() { _ = term.Restore(fd, oldState) }

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			switch buf[0] {
			case 0x03:
				cleanup()
				sendInterrupt()
				return
			case '\r', '\n', ' ':
				if pauser.Toggle() {
					logs.Log.Important("paused, press Enter or Space to resume")
				} else {
					logs.Log.Important("resumed")
				}
			}
		}
	}()

	return pauser, cleanup
}
