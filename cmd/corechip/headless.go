package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/go-kc85/corechip/internal/machine"
)

// runHeadless drives the machine without a GUI: it puts the named
// terminal into raw mode so keystrokes reach the emulator one byte at a
// time instead of waiting on a line of buffered input, and prints a
// one-line status readout sized to the terminal width instead of
// rendering the decoded video signal.
func runHeadless(sys *machine.System, ttyPath string) {
	tty, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corechip: opening %s: %v\n", ttyPath, err)
		os.Exit(1)
	}
	defer tty.Close()

	fd := int(tty.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corechip: %s is not a terminal: %v\n", ttyPath, err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		width = 80
	}

	input := make(chan byte, 256)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := tty.Read(buf); err != nil {
				close(input)
				return
			}
			input <- buf[0]
		}
	}()

	const frameUsec = 16_667
	ticker := time.NewTicker(frameUsec * time.Microsecond)
	defer ticker.Stop()

	var frame uint64
	for range ticker.C {
		drained := true
		for drained {
			select {
			case b, ok := <-input:
				if !ok {
					return // terminal closed
				}
				if b == 0x03 { // Ctrl-C: exit raw mode cleanly
					return
				}
				sys.KeyDown(b)
				sys.KeyUp(b)
			default:
				drained = false
			}
		}

		sys.Exec(frameUsec)
		frame++

		status := fmt.Sprintf("\rcorechip headless  frame %-8d  Ctrl-C to exit", frame)
		if len(status) > width {
			status = status[:width]
		}
		fmt.Fprint(tty, status)
	}
}
