package zoho

import (
	"context"
	"errors"
	"time"
)

// Backoff retries an operation with exponentially growing pauses
type Backoff struct {
	base       time.Duration
	maxRetries int
}

func NewBackoff(base time.Duration, maxRetries int) Backoff {
	return Backoff{base: base, maxRetries: maxRetries}
}

// permanentError stops the retry loop
type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// permanent marks err as not worth retrying
func permanent(err error) error {
	return permanentError{err: err}
}

// Do calls fn until it succeeds, returns a permanent error, the retries are
// used up or ctx is done. fn receives the attempt number starting at 0.
func (b Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	var err error
	for i := 0; i <= b.maxRetries; i++ {
		err = fn(i)
		if err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if i == b.maxRetries {
			break
		}

		timer := time.NewTimer(time.Duration(1<<i) * b.base)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}
