package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/nullbyte-labs/padoracle/internal/progress"
)

// defaultWidth is used when the output isn't a terminal (e.g. piped to a
// file) and term.GetSize can't report one.
const defaultWidth = 80

// renderEvents drains ctl's event stream and prints one width-sized status
// line per tick to stderr, sized to the terminal the way glebarez-GoPaddy's
// HackyBar sizes its status line to maxWidth — without adopting its
// colored/hacky rendering, which spec.md §1 places out of scope.
func renderEvents(ctl *progress.Controller, totalBlocks int) {
	width := terminalWidth()
	solved := 0
	for ev := range ctl.Events() {
		switch ev.State {
		case progress.Solved:
			solved++
			fmt.Fprintln(os.Stderr, statusLine(width, ev, solved, totalBlocks))
		case progress.Failed:
			fmt.Fprintf(os.Stderr, "block %d failed: %s\n", ev.Block, ev.Err)
		case progress.Cancelled:
			fmt.Fprintf(os.Stderr, "block %d cancelled\n", ev.Block)
		case progress.Running:
			fmt.Fprint(os.Stderr, "\r"+statusLine(width, ev, solved, totalBlocks))
		}
	}
}

func statusLine(width int, ev progress.Event, solved, totalBlocks int) string {
	label := fmt.Sprintf("block %d: %d/%d bytes", ev.Block, ev.BytesRecovered, ev.BlockSize)
	stats := fmt.Sprintf("[%d/%d blocks solved]", solved, totalBlocks)

	avail := width - len(stats) - 1
	if avail < 0 {
		avail = 0
	}
	if len(label) > avail {
		if avail > 3 {
			label = label[:avail-3] + "..."
		} else {
			label = label[:avail]
		}
	}
	pad := avail - len(label)
	if pad < 0 {
		pad = 0
	}
	return label + strings.Repeat(" ", pad) + " " + stats
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
