package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	ErrMissingHeader = errors.New("missing_authorization_header")
	ErrInvalidFormat = errors.New("invalid_authorization_header")
	ErrEmptyToken    = errors.New("empty_token")
	ErrInvalidToken  = errors.New("invalid_token")
)

const identityKey = "identity"

// ExtractBearerToken extracts the Bearer token from the Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// OptionalIdentity 는 Authorization 헤더가 없으면 anonymous 로 진행한다.
// 헤더가 있는데 형식이 틀리거나 토큰이 유효하지 않으면 401 로 끝낸다.
func OptionalIdentity(m *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c)
		if errors.Is(err, ErrMissingHeader) {
			c.Set(identityKey, Anonymous())
			c.Next()
			return
		}
		if err != nil {
			AbortWithUnauthorized(c, err)
			return
		}

		id, err := m.Parse(token)
		if err != nil {
			AbortWithUnauthorized(c, ErrInvalidToken)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom 은 OptionalIdentity 가 저장한 사용자를 꺼낸다. 없으면 anonymous.
func IdentityFrom(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Anonymous()
}

// AbortWithUnauthorized aborts the request with 401 status and error JSON.
func AbortWithUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}
