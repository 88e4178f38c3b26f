package usecase

import "time"

const (
	// DefaultRelayInterval is how often the log relay polls for new entries.
	DefaultRelayInterval = time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
