// Package news fetches raw articles from an upstream news API.
//
// The Source interface is what the ingestion pipeline consumes; Client
// is the production implementation for NewsData-style JSON endpoints.
package news
