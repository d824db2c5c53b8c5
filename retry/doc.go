// Package retry wraps AI calls in rate limiting and error-classified
// retries with exponential backoff.
package retry
