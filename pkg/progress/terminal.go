package progress

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"
)

// maxDetailWidth bounds the detail text appended to a bar title so long
// paths do not wrap the progress line.
const maxDetailWidth = 48

// TerminalReporter renders progress bars with pterm. It keeps an
// id-keyed state map guarded by a mutex so concurrent transfers can
// update distinct keys safely.
type TerminalReporter struct {
	mu      sync.Mutex
	bars    map[string]*pterm.ProgressbarPrinter
	states  map[string]*State
	enabled bool
}

// NewTerminalReporter creates a reporter that renders only when stdout
// is an interactive terminal with at least ANSI color support.
func NewTerminalReporter() *TerminalReporter {
	enabled := isatty.IsTerminal(os.Stdout.Fd()) &&
		termenv.ColorProfile() != termenv.Ascii
	return &TerminalReporter{
		bars:    make(map[string]*pterm.ProgressbarPrinter),
		states:  make(map[string]*State),
		enabled: enabled,
	}
}

// NewSilentReporter creates a reporter that tracks state but renders nothing.
func NewSilentReporter() *TerminalReporter {
	return &TerminalReporter{
		bars:    make(map[string]*pterm.ProgressbarPrinter),
		states:  make(map[string]*State),
		enabled: false,
	}
}

// Start implements Reporter.
func (r *TerminalReporter) Start(id, label string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[id] = &State{Label: label, Total: total}

	if !r.enabled {
		return
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(label).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		// Rendering failure downgrades to silent tracking.
		return
	}
	r.bars[id] = bar
}

// Increment implements Reporter.
func (r *TerminalReporter) Increment(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[id]
	if !ok {
		return
	}
	state.Current++

	if bar, ok := r.bars[id]; ok {
		bar.Increment()
		if state.Done() {
			_, _ = bar.Stop()
			delete(r.bars, id)
		}
	}
}

// SetDetail implements Reporter.
func (r *TerminalReporter) SetDetail(id, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[id]
	if !ok {
		return
	}
	state.LastDetail = text

	if bar, ok := r.bars[id]; ok {
		detail := text
		if len(detail) > maxDetailWidth {
			detail = "…" + detail[len(detail)-maxDetailWidth:]
		}
		bar.UpdateTitle(state.Label + "  " + pterm.Gray(detail))
	}
}

// Puts implements Reporter.
func (r *TerminalReporter) Puts(text string) {
	if !r.enabled {
		return
	}
	pterm.Println(text)
}

// Enabled implements Reporter.
func (r *TerminalReporter) Enabled() bool {
	return r.enabled
}

// StateOf returns a copy of the tracked state for id.
func (r *TerminalReporter) StateOf(id string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[id]
	if !ok {
		return State{}, false
	}
	return *state, true
}
