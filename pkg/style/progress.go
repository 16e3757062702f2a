package style

import (
	"github.com/pterm/pterm"
)

// Progress wraps a pterm progress bar behind the cumulative
// (completed, total) callback shape batch operations report with. A nil
// *Progress is valid and does nothing, so callers can hand out Update
// without checking whether rich output is enabled.
type Progress struct {
	bar  *pterm.ProgressbarPrinter
	last int
}

// NewProgress starts a progress bar with the given title and total. It
// returns nil for non-terminal formats and non-positive totals; a nil
// bar is safe to use.
func NewProgress(format Format, title string, total int) *Progress {
	if format != FormatTerminal || total <= 0 {
		return nil
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return nil
	}
	return &Progress{bar: bar}
}

// Update advances the bar to completed. Counts are cumulative, so the bar
// only moves by the delta since the last call.
func (p *Progress) Update(completed, total int) {
	if p == nil || p.bar == nil {
		return
	}
	if delta := completed - p.last; delta > 0 {
		p.bar.Add(delta)
		p.last = completed
	}
}

// Stop finishes the bar.
func (p *Progress) Stop() {
	if p == nil || p.bar == nil {
		return
	}
	_, _ = p.bar.Stop()
}
