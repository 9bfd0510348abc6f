package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Condition is polled by WaitUntil until it reports true.
type Condition func(ctx context.Context) (bool, error)

// Backoff controls polling: the first retry comes after Initial, each later
// one Multiplier times further out, capped at Max. Timeout bounds the whole wait.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Timeout    time.Duration
}

// DefaultBackoff polls for up to timeout with the configured defaults.
func DefaultBackoff(timeout time.Duration) Backoff {
	return Backoff{
		Initial:    100 * time.Millisecond,
		Max:        2 * time.Second,
		Multiplier: 1.6,
		Timeout:    timeout,
	}
}

// WithTimeout returns a copy of b bounded by d.
func (b Backoff) WithTimeout(d time.Duration) Backoff {
	b.Timeout = d
	return b
}

func (b Backoff) normalized() Backoff {
	if b.Initial <= 0 {
		b.Initial = 100 * time.Millisecond
	}
	if b.Max < b.Initial {
		b.Max = b.Initial
	}
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	if b.Timeout <= 0 {
		b.Timeout = 10 * time.Second
	}
	return b
}

// WaitUntil polls cond until it holds, it fails, or the timeout elapses.
// The last check happens at the deadline itself. A timeout yields an error
// wrapping ErrWaitTimeout; cancellation of ctx itself is returned as is.
func WaitUntil(ctx context.Context, cond Condition, b Backoff) error {
	b = b.normalized()

	deadline := time.Now().Add(b.Timeout)
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	interval := b.Initial
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	// The first check runs immediately; spend the burst token on it.
	limiter.Allow()

	var lastErr error
	timeout := func() error {
		if lastErr != nil {
			return fmt.Errorf("%w after %s: %w", ErrWaitTimeout, b.Timeout, lastErr)
		}
		return fmt.Errorf("%w after %s", ErrWaitTimeout, b.Timeout)
	}

	for {
		ok, err := cond(waitCtx)
		switch {
		case err == nil && ok:
			return nil
		case err != nil && waitCtx.Err() == nil:
			return err
		case err != nil:
			lastErr = err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return timeout()
		}
		delay := limiter.Reserve().Delay()
		final := delay >= remaining
		if final {
			delay = remaining
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}

		if final {
			return lastCheck(ctx, cond, b.Max, timeout)
		}

		next := time.Duration(float64(interval) * b.Multiplier)
		if next > b.Max {
			next = b.Max
		}
		if next != interval {
			interval = next
			limiter.SetLimit(rate.Every(interval))
		}
	}
}

// lastCheck runs cond once more at the deadline, bounded by grace.
func lastCheck(ctx context.Context, cond Condition, grace time.Duration, timeout func() error) error {
	checkCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	ok, err := cond(checkCtx)
	if err == nil && ok {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return timeout()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Expect waits until loc is visible and fails with an *AssertionError otherwise.
func Expect(ctx context.Context, c Client, loc Locator, b Backoff) error {
	err := WaitUntil(ctx, func(ctx context.Context) (bool, error) {
		return c.Exists(ctx, loc)
	}, b)
	if errors.Is(err, ErrWaitTimeout) {
		return &AssertionError{Locator: loc, Timeout: b.normalized().Timeout, Err: err}
	}
	return err
}

// ExpectAny waits until one of locs is visible and returns the first one
// found, checking in argument order.
func ExpectAny(ctx context.Context, c Client, b Backoff, locs ...Locator) (Locator, error) {
	if len(locs) == 0 {
		return Locator{}, errors.New("expect any: no locators given")
	}

	var found Locator
	err := WaitUntil(ctx, func(ctx context.Context) (bool, error) {
		for _, loc := range locs {
			ok, err := c.Exists(ctx, loc)
			if err != nil {
				return false, err
			}
			if ok {
				found = loc
				return true, nil
			}
		}
		return false, nil
	}, b)
	if errors.Is(err, ErrWaitTimeout) {
		return Locator{}, &AssertionError{Locator: locs[0], Timeout: b.normalized().Timeout, Err: err}
	}
	return found, err
}
