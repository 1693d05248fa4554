package application

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tourhub/service-booking/internal/platform/config"
	"github.com/tourhub/service-booking/internal/platform/domain"
)

// RetryPolicy bounds how often a transient failure is retried.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy matches the configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialInterval: 50 * time.Millisecond, MaxInterval: time.Second}
}

// RetryPolicyFromConfig builds a RetryPolicy from admission settings.
func RetryPolicyFromConfig(cfg config.AdmissionConfig) RetryPolicy {
	p := RetryPolicy{
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	return p
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxRetries)), ctx)
}

// withRetry runs fn, retrying only transient failures. When retries run out the
// last transient error is returned unchanged.
func withRetry(ctx context.Context, policy RetryPolicy, logger *zap.Logger, op string, fn func() error) error {
	err := backoff.RetryNotify(func() error {
		err := fn()
		if err == nil || domain.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy.backOff(ctx), func(err error, wait time.Duration) {
		logger.Warn("transient failure, retrying",
			zap.String("operation", op),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	})

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}
