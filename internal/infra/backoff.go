package infra

import "time"

const (
	backoffBase = 1 * time.Second
	backoffMax  = 60 * time.Second
)

// CalculateBackoff returns the exponential reconnect delay for a retry
// attempt, capped at backoffMax.
func CalculateBackoff(retry int) time.Duration {
	delay := backoffBase
	for i := 0; i < retry; i++ {
		delay *= 2
		if delay >= backoffMax {
			return backoffMax
		}
	}
	return delay
}
