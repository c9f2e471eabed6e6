// Package progress decouples long-running operations from how their
// progress is rendered. The sync engine only talks to the Reporter
// interface; rendering lives in the terminal implementation.
package progress

// Reporter receives progress signals from long-running operations,
// keyed by a caller-supplied identifier so concurrent transfers do not
// interfere with each other.
type Reporter interface {
	// Start begins tracking an operation with a known total number of steps.
	Start(id, label string, total int)

	// Increment advances the operation by one step.
	Increment(id string)

	// SetDetail updates the free-form detail line for an operation,
	// typically the path currently being transferred.
	SetDetail(id, text string)

	// Puts emits a plain line of text outside of any progress bar.
	Puts(text string)

	// Enabled reports whether progress output is being rendered at all.
	// Callers may skip expensive pre-flight work when it returns false.
	Enabled() bool
}

// State is the tracked state of one in-flight operation.
type State struct {
	Label      string
	Total      int
	Current    int
	LastDetail string
}

// Done reports whether the operation has reached its total.
func (s State) Done() bool {
	return s.Total > 0 && s.Current >= s.Total
}
