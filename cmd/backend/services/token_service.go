package services

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"employee-assistant/cmd/backend/auth"
	"employee-assistant/cmd/backend/dto"
)

// TokenService 는 개발용 사용자 목록으로 JWT 를 발급한다.
type TokenService struct {
	jwt   *auth.JWTManager
	users map[string]string
}

func NewTokenService(jwt *auth.JWTManager, users map[string]string) *TokenService {
	return &TokenService{jwt: jwt, users: users}
}

func (s *TokenService) Issue(username, password string) (dto.TokenResponseDTO, *ServiceError) {
	username = strings.TrimSpace(username)
	expected, ok := s.users[username]
	if username == "" || !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(password)) != 1 {
		return dto.TokenResponseDTO{}, &ServiceError{StatusCode: http.StatusUnauthorized, Message: "invalid_credentials"}
	}

	token, err := s.jwt.Sign(auth.Identity{UserID: username, Username: username, Email: username + "@employee-assistant.local"})
	if err != nil {
		return dto.TokenResponseDTO{}, internal("token_issue_failed", err)
	}
	return dto.TokenResponseDTO{Token: token, ExpiresIn: int64(s.jwt.TTL().Seconds())}, nil
}
