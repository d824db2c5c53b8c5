// Package ingestion orchestrates article ingestion batches.
//
// One batch fetches candidates from a news source, skips URLs already
// stored, enriches the rest through the rate-limited AI layer, persists
// the results, and returns a BatchResult accounting for every
// candidate. Per-candidate failures never abort a batch; only quota
// exhaustion and cancellation halt it early.
package ingestion
