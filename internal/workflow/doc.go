// Package workflow orchestrates one update run: it walks the manager
// registry in sort order, executes each manager's stage table sequentially,
// and aggregates per-manager outcomes into a Summary.
//
// Execution is fully synchronous. One stage runs to completion before the
// next starts, and one manager finishes before the next begins; a failed
// manager stops its own remaining stages but never the managers after it.
// Cancellation converts to a single console line and Cancelled outcomes for
// everything that did not get to run.
package workflow
