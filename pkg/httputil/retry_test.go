package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetryableError(t *testing.T) {
	wrapped := &RetryableError{Err: errTransient}

	if !isRetryable(wrapped) {
		t.Error("isRetryable should be true for wrapped error")
	}
	if isRetryable(errTransient) {
		t.Error("isRetryable should be false for unwrapped error")
	}
	if wrapped.Error() != errTransient.Error() {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), errTransient.Error())
	}
	if !errors.Is(wrapped, errTransient) {
		t.Error("wrapped error should unwrap to the cause")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("success on first try", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, 3, time.Millisecond, func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Errorf("Retry() error: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("non-retryable stops immediately", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, 3, time.Millisecond, func() error {
			calls++
			return errTransient
		})
		if err != errTransient {
			t.Errorf("Retry() error = %v, want errTransient", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retryable retries until success", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, 3, time.Millisecond, func() error {
			calls++
			if calls < 2 {
				return &RetryableError{Err: errTransient}
			}
			return nil
		})
		if err != nil {
			t.Errorf("Retry() error: %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("exhausted attempts return last error", func(t *testing.T) {
		calls := 0
		err := Retry(ctx, 3, time.Millisecond, func() error {
			calls++
			return &RetryableError{Err: errTransient}
		})
		if !errors.Is(err, errTransient) {
			t.Errorf("Retry() error = %v, want errTransient", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Minute, func() error {
		return &RetryableError{Err: errTransient}
	})
	if err != context.Canceled {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}
