package scan

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Progress reports per-item progress for a long-running pass.
type Progress interface {
	Start(total int, description string)
	Step(label string)
	Finish()
}

// NopProgress discards progress.
type NopProgress struct{}

func (NopProgress) Start(int, string) {}
func (NopProgress) Step(string)       {}
func (NopProgress) Finish()           {}

// BarProgress renders a terminal progress bar.
type BarProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBarProgress writes a bar to w.
func NewBarProgress(w io.Writer) *BarProgress {
	return &BarProgress{w: w}
}

// ForTerminal returns a bar on stderr when it is a terminal and quiet is false,
// otherwise a no-op.
func ForTerminal(quiet bool) Progress {
	fd := os.Stderr.Fd()
	if quiet || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		return NopProgress{}
	}
	return NewBarProgress(os.Stderr)
}

func (p *BarProgress) Start(total int, description string) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *BarProgress) Step(string) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *BarProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
