package agent

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQuotaLimiterDailyLimitResetsNextDay(t *testing.T) {
	l := NewQuotaLimiter(0, 2)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if err := l.WaitAndReserve(context.Background()); err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
	}
	if err := l.WaitAndReserve(context.Background()); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	now = now.Add(24 * time.Hour)
	if err := l.WaitAndReserve(context.Background()); err != nil {
		t.Fatalf("expected quota to reset on a new day, got %v", err)
	}
}

func TestQuotaLimiterWaitHonorsContext(t *testing.T) {
	l := NewQuotaLimiter(1, 0)
	if err := l.WaitAndReserve(context.Background()); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.WaitAndReserve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while waiting for the interval, got %v", err)
	}
}

func TestQuotaAnswererBlocksWhenExhausted(t *testing.T) {
	q := NewQuotaAnswerer(EchoAnswerer{}, NewQuotaLimiter(0, 1))

	if _, err := q.Answer(context.Background(), Request{Message: "hi"}); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if _, err := q.Answer(context.Background(), Request{Message: "again"}); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if q.Name() != "echo" {
		t.Fatalf("expected wrapped name, got %q", q.Name())
	}
}
