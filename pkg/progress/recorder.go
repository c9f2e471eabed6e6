package progress

import "sync"

// Recorder is a Reporter that records every signal it receives.
// It is used by tests and by non-interactive runs that want a
// post-hoc summary instead of live rendering.
type Recorder struct {
	mu     sync.Mutex
	states map[string]*State
	Lines  []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{states: make(map[string]*State)}
}

// Start implements Reporter.
func (r *Recorder) Start(id, label string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[id] = &State{Label: label, Total: total}
}

// Increment implements Reporter.
func (r *Recorder) Increment(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[id]; ok {
		state.Current++
	}
}

// SetDetail implements Reporter.
func (r *Recorder) SetDetail(id, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[id]; ok {
		state.LastDetail = text
	}
}

// Puts implements Reporter.
func (r *Recorder) Puts(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lines = append(r.Lines, text)
}

// Enabled implements Reporter. A Recorder is always on so callers
// exercise their full reporting paths.
func (r *Recorder) Enabled() bool { return true }

// StateOf returns a copy of the recorded state for id.
func (r *Recorder) StateOf(id string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[id]
	if !ok {
		return State{}, false
	}
	return *state, true
}
