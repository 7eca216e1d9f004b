package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/internal/logger"
)

// ErrNoIdentity 는 인증된 사용자가 없을 때 Source 가 돌려준다.
var ErrNoIdentity = errors.New("no authenticated identity")

// Credential 은 백엔드 호출에 붙일 bearer 토큰이다.
// ExpiresAt 이 zero 면 만료를 알 수 없는 토큰으로 보고 계속 재사용한다.
type Credential struct {
	Token     string
	ExpiresAt time.Time
	UserID    string
}

// Provider 는 현재 사용자의 자격 증명을 돌려준다. 여러 요청에서 동시에 호출해도 안전해야 한다.
type Provider interface {
	Credential(ctx context.Context) (Credential, error)
}

// Source 는 실제로 토큰을 발급/갱신하는 주체(ID 공급자)다.
type Source interface {
	Fetch(ctx context.Context) (Credential, error)
}

// CachingProvider 는 Source 결과를 만료 직전까지 캐시하고,
// 만료 구간에 동시에 들어온 호출들을 하나의 갱신으로 합친다.
type CachingProvider struct {
	source Source
	skew   time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu     sync.Mutex
	cached *Credential
}

func NewCachingProvider(source Source, skew time.Duration) *CachingProvider {
	return &CachingProvider{
		source: source,
		skew:   skew,
		now:    time.Now,
	}
}

func (p *CachingProvider) Credential(ctx context.Context) (Credential, error) {
	if c, ok := p.current(); ok {
		return c, nil
	}

	ch := p.group.DoChan("refresh", func() (any, error) {
		// 앞선 갱신이 방금 끝났을 수 있다.
		if c, ok := p.current(); ok {
			return c, nil
		}
		// 갱신은 함께 기다리는 호출자 모두의 것이다. 시간 제한은 Source 의 HTTP 클라이언트가 건다.
		return p.refresh(context.WithoutCancel(ctx))
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return Credential{}, apperr.AuthUnavailable("get_credential", ctx.Err())
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		if apperr.KindOf(err) == apperr.KindAuthUnavailable {
			return Credential{}, err
		}
		return Credential{}, apperr.AuthUnavailable("get_credential", err)
	}
	if shared {
		logger.DebugWithFields("credential refresh shared", nil)
	}
	return v.(Credential), nil
}

// Invalidate 는 캐시된 자격 증명을 버린다. 서버가 401 로 거절했을 때 호출한다.
func (p *CachingProvider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}

func (p *CachingProvider) current() (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached == nil {
		return Credential{}, false
	}
	c := *p.cached
	if !c.ExpiresAt.IsZero() && !p.now().Add(p.skew).Before(c.ExpiresAt) {
		return Credential{}, false
	}
	return c, true
}

func (p *CachingProvider) refresh(ctx context.Context) (Credential, error) {
	if p.source == nil {
		return Credential{}, ErrNoIdentity
	}
	c, err := p.source.Fetch(ctx)
	if err != nil {
		logger.WarnWithFields("credential refresh failed", logger.Fields{"error": err.Error()})
		return Credential{}, err
	}
	if c.Token == "" {
		return Credential{}, ErrNoIdentity
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = ExpiryFromToken(c.Token)
	}
	if c.UserID == "" {
		c.UserID = UserIDFromToken(c.Token)
	}

	p.mu.Lock()
	p.cached = &c
	p.mu.Unlock()

	fields := logger.Fields{"user_id": c.UserID}
	if !c.ExpiresAt.IsZero() {
		fields["expires_at"] = c.ExpiresAt.UTC().Format(time.RFC3339)
	}
	logger.InfoWithFields("credential refreshed", fields)
	return c, nil
}
