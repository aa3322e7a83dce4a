package tui

import "github.com/AnferLagbu/Chameleon/internal/batch"

// FinalTally returns the completed batch's tally. ok is false when the batch
// was cancelled or the program exited before completion.
func (m Model) FinalTally() (batch.Tally, bool) {
	return m.tally, m.completed
}

// WasCancelled reports whether the batch ended by cancellation.
func (m Model) WasCancelled() bool {
	return m.cancelled
}

// ErrorCount returns the number of per-file errors observed.
func (m Model) ErrorCount() int {
	return m.errorCount
}
