package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy repeats retryable model failures. MaxAttempts of 1 means no retry.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff is multiplied by the attempt number between attempts.
	Backoff time.Duration
	Logger  *zap.Logger
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out.
func (p RetryPolicy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", zap.String("operation", operation), zap.Int("attempt", attempt))
			}
			return nil
		}
		if !IsRetryable(err) || attempt == maxAttempts || ctx.Err() != nil {
			return err
		}

		logger.Warn("retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))

		// Wait before retry
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * p.Backoff):
		}
	}
	return err
}
