// Package invoker executes remote side-effecting commands with bounded
// retry. Server-class and transport failures are retried with linear
// backoff; client-class failures are terminal and returned immediately. A
// per-command in-flight guard stops a repeated user action from issuing the
// same command twice while one is still pending.
package invoker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"telemed-portal/internal/apperr"
)

const defaultMaxAttempts = 3

type Invoker struct {
	maxAttempts int
	baseWait    time.Duration
	logger      *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func New(logger *zap.Logger) *Invoker {
	return &Invoker{
		maxAttempts: defaultMaxAttempts,
		baseWait:    time.Second,
		logger:      logger,
		inFlight:    make(map[string]bool),
	}
}

// WithBaseWait overrides the backoff unit. Used by tests to keep retries
// fast; production keeps the 1s default.
func (iv *Invoker) WithBaseWait(d time.Duration) *Invoker {
	iv.baseWait = d
	return iv
}

// Invoke runs fn, retrying retryable failures up to three total attempts
// with waits of baseWait, 2*baseWait between them. fn owns its result;
// callers capture it in the closure.
func (iv *Invoker) Invoke(ctx context.Context, name string, fn func(context.Context) error) error {
	if !iv.acquire(name) {
		return apperr.Newf(apperr.Validation, "%s is already in progress", name)
	}
	defer iv.release(name)

	var lastErr error
	for attempt := 1; attempt <= iv.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !apperr.Retryable(lastErr) {
			return lastErr
		}
		if attempt == iv.maxAttempts {
			break
		}
		wait := time.Duration(attempt) * iv.baseWait
		iv.logger.Warn("command failed, retrying",
			zap.String("command", name),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(lastErr),
		)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	iv.logger.Error("command failed after all attempts",
		zap.String("command", name),
		zap.Int("attempts", iv.maxAttempts),
		zap.Error(lastErr),
	)
	return lastErr
}

func (iv *Invoker) acquire(name string) bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if iv.inFlight[name] {
		return false
	}
	iv.inFlight[name] = true
	return true
}

func (iv *Invoker) release(name string) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	delete(iv.inFlight, name)
}

// sleep waits for d or until the context is cancelled. The backoff is a
// suspension point, not a block: other consultations' operations proceed.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return apperr.Newf(apperr.Network, "cancelled while waiting to retry: %v", ctx.Err())
	case <-timer.C:
		return nil
	}
}
