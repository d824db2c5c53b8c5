// Package search finds stored articles semantically similar to a
// free-text query.
//
// The query is embedded through the shared rate-limited executor, then
// matched against stored vectors; results containing every significant
// query word verbatim get a fixed score boost.
package search
