package agent

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQuotaExceeded 는 일일 답변 한도를 다 쓴 경우다. 재시도해도 같은 날에는 풀리지 않는다.
var ErrQuotaExceeded = errors.New("daily answer quota exceeded")

// QuotaLimiter 는 모델 호출의 분당 간격과 일일 한도를 관리한다.
// 백엔드 인스턴스 하나 기준의 인메모리 카운터이며 재시작하면 초기화된다.
type QuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time

	now func() time.Time
}

// NewQuotaLimiter 는 0 이하 값이면 해당 방향의 제한을 두지 않는다.
func NewQuotaLimiter(requestsPerMinute, requestsPerDay int) *QuotaLimiter {
	var interval time.Duration
	if requestsPerMinute > 0 {
		interval = time.Minute / time.Duration(requestsPerMinute)
	}
	if requestsPerDay < 0 {
		requestsPerDay = 0
	}
	return &QuotaLimiter{
		dailyLimit: requestsPerDay,
		interval:   interval,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WaitAndReserve 는 호출 한 번을 예약한다. 간격이 남았으면 기다리고,
// 일일 한도를 넘었으면 ErrQuotaExceeded 를 돌려준다.
func (l *QuotaLimiter) WaitAndReserve(ctx context.Context) error {
	for {
		l.mu.Lock()

		now := l.now()
		todayKey := now.Format("2006-01-02")
		if l.dayKey != todayKey {
			l.dayKey = todayKey
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return ErrQuotaExceeded
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = l.lastCall.Add(l.interval).Sub(now)
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return nil
		}

		l.mu.Unlock()
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// QuotaAnswerer 는 QuotaLimiter 를 통과한 요청만 내부 Answerer 로 넘긴다.
type QuotaAnswerer struct {
	next    Answerer
	limiter *QuotaLimiter
}

func NewQuotaAnswerer(next Answerer, limiter *QuotaLimiter) *QuotaAnswerer {
	return &QuotaAnswerer{next: next, limiter: limiter}
}

func (q *QuotaAnswerer) Name() string { return q.next.Name() }

func (q *QuotaAnswerer) Answer(ctx context.Context, req Request) (Answer, error) {
	if err := q.limiter.WaitAndReserve(ctx); err != nil {
		return Answer{}, err
	}
	return q.next.Answer(ctx, req)
}
