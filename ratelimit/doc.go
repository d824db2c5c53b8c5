// Package ratelimit paces calls to the AI provider against its quota.
//
// The provider's free tier allows a fixed number of calls per rolling
// minute and per rolling day, and in practice also throttles bursts, so
// the Limiter additionally keeps a minimum interval between consecutive
// calls. One Limiter instance is shared by every component that talks to
// the provider; the enrichment path acquires a slot before each call.
package ratelimit
