// Package tui is the live dashboard: a bubbletea program that renders the
// run's statistics while the engine is dispatching.
//
// The model owns the engine and the aggregator for the current run. The
// aggregator's consumption loop runs in a background goroutine and forwards
// every recorded outcome into the program as a message; the dashboard keeps
// only a bounded ring of recent outcomes for the log pane, so memory stays
// flat regardless of run size. Statistics are re-sampled from the
// aggregator on a 100ms tick rather than per outcome.
//
// Key bindings: q/esc/enter quit, i interrupts the run but keeps the
// partial results on screen, r restarts with the same parameters, y copies
// the report to the clipboard.
package tui
