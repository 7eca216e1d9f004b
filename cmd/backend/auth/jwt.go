package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const AnonymousUserID = "anonymous"

// Identity 는 요청한 사용자다. 토큰이 없으면 anonymous 다.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

func Anonymous() Identity {
	return Identity{UserID: AnonymousUserID, Username: AnonymousUserID}
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == AnonymousUserID
}

// JWTManager 는 HS256 단일 시크릿 문자열을 사용해 JWT 를 발급/검증한다.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTManager 는 시크릿이 비어 있으면 오류를 돌려준다. issuer 기본값은 employee-assistant.
func NewJWTManager(secret, issuer string, ttl time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if issuer == "" {
		issuer = "employee-assistant"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

func (m *JWTManager) TTL() time.Duration {
	return m.ttl
}

func (m *JWTManager) Sign(id Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub":      id.UserID,
		"username": id.Username,
		"email":    id.Email,
		"iss":      m.issuer,
		"exp":      time.Now().Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) Parse(tokenString string) (Identity, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return Identity{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, fmt.Errorf("token missing sub claim")
	}
	username, _ := claims["username"].(string)
	if username == "" {
		username = sub
	}
	email, _ := claims["email"].(string)

	return Identity{UserID: sub, Username: username, Email: email}, nil
}
