package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/kbukum/structured/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, Backoff: Backoff{Initial: time.Millisecond, Factor: 2}}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || got != "ok" || calls != 1 {
		t.Errorf("got %q, %v after %d calls", got, err, calls)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastRetry(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" || calls != 3 {
		t.Errorf("got %q, %v after %d calls", got, err, calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	last := errors.New("last")
	_, err := Retry(context.Background(), fastRetry(3), func() (int, error) {
		calls++
		if calls == 3 {
			return 0, last
		}
		return 0, errors.New("earlier")
	})
	if !errors.Is(err, last) || calls != 3 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(5), func() (int, error) {
		calls++
		return 0, apperrors.InvalidInput("x", "bad")
	})
	if calls != 1 || !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("err = %v after %d calls", err, calls)
	}

	calls = 0
	_, _ = Retry(context.Background(), fastRetry(5), func() (int, error) {
		calls++
		return 0, ErrCircuitOpen
	})
	if calls != 1 {
		t.Errorf("open breaker should not be retried, got %d calls", calls)
	}
}

func TestRetry_RetriesTransportErrors(t *testing.T) {
	calls := 0
	_, _ = Retry(context.Background(), fastRetry(3), func() (int, error) {
		calls++
		return 0, apperrors.Transport("test", errors.New("reset"))
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	cfg := RetryConfig{MaxAttempts: 10, Backoff: Backoff{Initial: 50 * time.Millisecond}}

	calls := 0
	_, err := Retry(ctx, cfg, func() (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if !errors.Is(err, context.DeadlineExceeded) || calls >= 10 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func TestRetry_OnRetry(t *testing.T) {
	var delays []time.Duration
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, err error, d time.Duration) { delays = append(delays, d) }
	_, _ = Retry(context.Background(), cfg, func() (int, error) { return 0, errors.New("x") })
	if len(delays) != 2 || delays[0] != time.Millisecond || delays[1] != 2*time.Millisecond {
		t.Errorf("delays = %v", delays)
	}
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: time.Second, Factor: 2}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second}
	for i, w := range want {
		if got := b.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, w)
		}
	}
	if (Backoff{}).Delay(3) != 0 {
		t.Error("zero backoff should not pause")
	}

	jittered := Backoff{Initial: 100 * time.Millisecond, Factor: 2, Jitter: 0.5}
	for i := 0; i < 50; i++ {
		d := jittered.Delay(1)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("jittered delay out of range: %v", d)
		}
	}
}

func TestSleep_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
