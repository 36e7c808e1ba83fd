package streamclient

import (
	"math/rand/v2"
	"time"
)

// nextBackoff computes min(2^attempt, max) + uniform(0, 30% of that), the
// same shape as the teacher's reconnect backoff but generalized to this
// client's single-connection reconnect loop rather than a per-role
// connection pool.
func nextBackoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= max {
			backoff = max
			break
		}
	}
	if backoff > max {
		backoff = max
	}

	jitter := time.Duration(rand.Float64() * 0.3 * float64(backoff))
	return backoff + jitter
}
