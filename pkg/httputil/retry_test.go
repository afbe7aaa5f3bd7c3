package httputil

import (
	"context"
	"errors"
	"testing"
	"time"

	zderrors "github.com/alderacgit/ZenDeskExport/pkg/errors"
)

func TestRetry_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
}

func TestRetry_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New("transient")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("got %d calls, want 3", calls)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	authErr := zderrors.New(zderrors.ErrCodeUnauthorized, "bad credentials")
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return authErr
	})
	if !errors.Is(err, authErr) {
		t.Fatalf("got %v, want auth error", err)
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1 (auth errors must not be retried)", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: errors.New("still down")}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("got %d calls, want 3", calls)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error {
		return &RetryableError{Err: errors.New("transient")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRetryAfter_Extraction(t *testing.T) {
	err := &RetryableError{Err: zderrors.Wrap(
		zderrors.ErrCodeRateLimited,
		&zderrors.RateLimitedError{RetryAfter: 7},
		"search tickets",
	)}
	if got := retryAfter(err); got != 7*time.Second {
		t.Errorf("retryAfter() = %v, want 7s", got)
	}
	if got := retryAfter(errors.New("plain")); got != 0 {
		t.Errorf("retryAfter() = %v for plain error, want 0", got)
	}
}
