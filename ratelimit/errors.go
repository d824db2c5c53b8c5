package ratelimit

import "errors"

// ErrQuotaExhausted is returned by Acquire when the day budget is spent.
// Unlike a minute-window stall, this is not waited out: callers should
// stop issuing work and report the remaining items as skipped.
var ErrQuotaExhausted = errors.New("daily API quota exhausted")
