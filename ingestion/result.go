package ingestion

// BatchResult aggregates the outcome of one ingestion batch.
//
// Invariant: Succeeded + Failed + Skipped <= Total, with strict
// inequality only when processing stopped early (quota exhaustion or
// cancellation), in which case Errors carries the early-stop entry.
type BatchResult struct {
	// Total is the number of fetched candidates, including any that were
	// never attempted because of an early stop.
	Total int

	// Succeeded counts candidates enriched and persisted.
	Succeeded int

	// Failed counts candidates whose enrichment or persistence failed.
	Failed int

	// Skipped counts candidates dropped by the dedup check.
	Skipped int

	// Errors holds one URL-prefixed description per failed candidate, in
	// processing order, plus an early-stop entry when the batch halted.
	Errors []string
}

// Processed returns how many candidates reached a terminal state.
func (r *BatchResult) Processed() int {
	return r.Succeeded + r.Failed + r.Skipped
}

// StoppedEarly reports whether the batch halted before attempting every
// candidate.
func (r *BatchResult) StoppedEarly() bool {
	return r.Processed() < r.Total
}
