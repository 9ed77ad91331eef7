// File path: internal/llm/retry.go
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/bidsmith/rfpcopilot/internal/common"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
)

// Invoker wraps a provider with bounded retries. Attempt n waits
// base*2^(n-1) before retrying, so the defaults wait 2s then 4s across three
// attempts. The wait aborts early when the context is cancelled.
type Invoker struct {
	provider    Provider
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// InvokerOption customizes an Invoker.
type InvokerOption func(*Invoker)

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) InvokerOption {
	return func(i *Invoker) {
		if n > 0 {
			i.maxAttempts = n
		}
	}
}

// WithBaseDelay overrides the first retry delay.
func WithBaseDelay(d time.Duration) InvokerOption {
	return func(i *Invoker) {
		if d > 0 {
			i.baseDelay = d
		}
	}
}

// withSleep substitutes the wait primitive, used by tests.
func withSleep(fn func(ctx context.Context, d time.Duration) error) InvokerOption {
	return func(i *Invoker) { i.sleep = fn }
}

// NewInvoker wraps provider with the default retry policy.
func NewInvoker(provider Provider, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		provider:    provider,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Provider exposes the wrapped provider for calls that manage their own
// failure handling, such as embedding with a zero-vector fallback.
func (i *Invoker) Provider() Provider {
	return i.provider
}

// Chat runs the request, retrying transient failures with exponential
// backoff. The last provider error is returned once the attempt budget is
// exhausted.
func (i *Invoker) Chat(ctx context.Context, req ChatRequest) (string, error) {
	logger := common.Logger()
	var lastErr error
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		text, err := i.provider.Chat(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		logger.Warn("llm: attempt failed", "attempt", attempt, "error", err)
		if attempt == i.maxAttempts {
			break
		}
		delay := i.baseDelay * (1 << (attempt - 1))
		logger.Info("llm: retrying", "delay", delay)
		if err := i.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("chat failed after %d attempts: %w", i.maxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
