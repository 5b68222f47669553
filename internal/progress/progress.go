package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for long indexing and analysis runs. The
// bar writes to stderr so stdout stays clean for machine-readable output
// and MCP traffic.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	quiet bool
}

// NewSpinner creates a spinner for operations with an unknown total.
func NewSpinner(label string) *Tracker {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label}
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label}
}

// NewQuiet creates a tracker that renders nothing. Used when the process
// serves a protocol over stdio and must not draw on the terminal.
func NewQuiet(label string) *Tracker {
	return &Tracker{label: label, quiet: true}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t.quiet {
		return
	}
	t.bar.Add(1)
}

// Finish clears the bar completely.
func (t *Tracker) Finish() {
	if t.quiet {
		return
	}
	t.bar.Finish()
	t.bar.Clear()
}

// FinishError clears the bar and prints an error message to stderr.
func (t *Tracker) FinishError(err error) {
	if t.quiet {
		return
	}
	t.bar.Finish()
	t.bar.Clear()
	fmt.Fprintf(os.Stderr, "  %s error: %v\n", t.label, err)
}
