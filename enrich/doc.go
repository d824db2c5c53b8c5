// Package enrich turns raw articles into summaries and embedding
// vectors.
//
// All model traffic flows through a retry executor bound to the shared
// rate limiter; the Enricher itself only truncates inputs, validates
// outputs, and sequences the two calls per article.
package enrich
