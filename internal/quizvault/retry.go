package quizvault

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
)

const maxTxRetryWait = 2 * time.Second

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// runs out of attempts. fn must be a complete unit of work (normally one
// transaction) so that every attempt starts from scratch.
func (s *Service) withRetry(ctx context.Context, op string, fn func() error) error {
	attempts := max(1, s.Config.MaxTxAttempts)
	var lastErr error

	for attempt := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
		log.Ctx(ctx).Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("retryable-tx-failure")

		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff(attempt)):
		}
	}
	return fmt.Errorf("%w: %w", ErrTryAgain, lastErr)
}

func (s *Service) backoff(attempt int) time.Duration {
	wait := float64(s.Config.TxRetryWait) * math.Pow(2, float64(attempt))
	if wait > float64(maxTxRetryWait) {
		wait = float64(maxTxRetryWait)
	}
	// ±20% jitter
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
