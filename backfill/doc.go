// Package backfill re-embeds stored articles after an embedding model
// change.
//
// Stored vectors are only comparable to fresh ones when both come from
// the same model, so switching models invalidates the whole index. The
// Backfiller walks every stored article, regenerates its vector in
// batches through the shared rate-limited executor, and updates the
// store in place.
package backfill
