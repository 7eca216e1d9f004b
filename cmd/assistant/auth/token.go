package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AnonymousUserID 는 토큰에서 사용자를 알아낼 수 없을 때 쓰는 식별자다.
const AnonymousUserID = "anonymous"

// UserIDFromToken 은 JWT payload 의 sub 를 서명 검증 없이 읽는다.
// 서명 검증은 서버 몫이고, 여기서는 표시/로깅용 식별자만 필요하다. 어떤 실패든 anonymous 로 대체한다.
func UserIDFromToken(token string) string {
	claims, ok := unverifiedClaims(token)
	if !ok {
		return AnonymousUserID
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return AnonymousUserID
	}
	return sub
}

// ExpiryFromToken 은 JWT 의 exp 클레임을 돌려준다. 없거나 JWT 가 아니면 zero time 이다.
func ExpiryFromToken(token string) time.Time {
	claims, ok := unverifiedClaims(token)
	if !ok {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func unverifiedClaims(token string) (claims jwt.MapClaims, ok bool) {
	defer func() {
		if recover() != nil {
			claims, ok = nil, false
		}
	}()
	if token == "" {
		return nil, false
	}
	claims = jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}
