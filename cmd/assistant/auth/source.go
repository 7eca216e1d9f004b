package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"employee-assistant/cmd/internal/httpclient"
)

// StaticSource 는 설정이나 환경변수로 받은 고정 토큰을 돌려준다.
type StaticSource struct {
	Token string
}

func (s StaticSource) Fetch(context.Context) (Credential, error) {
	if s.Token == "" {
		return Credential{}, ErrNoIdentity
	}
	return Credential{Token: s.Token}, nil
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	Error     string `json:"error"`
}

// TokenEndpointSource 는 username/password 로 ID 공급자의 토큰 엔드포인트를 호출한다.
type TokenEndpointSource struct {
	base     *httpclient.BaseClient
	path     string
	username string
	password string
}

func NewTokenEndpointSource(base *httpclient.BaseClient, path, username, password string) *TokenEndpointSource {
	return &TokenEndpointSource{base: base, path: path, username: username, password: password}
}

func (s *TokenEndpointSource) Fetch(ctx context.Context) (Credential, error) {
	if s.username == "" {
		return Credential{}, ErrNoIdentity
	}
	payload, err := json.Marshal(tokenRequest{Username: s.username, Password: s.password})
	if err != nil {
		return Credential{}, err
	}

	req, err := s.base.NewJSONRequest(ctx, http.MethodPost, s.path, nil, payload)
	if err != nil {
		return Credential{}, err
	}
	resp, err := s.base.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("token endpoint request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Credential{}, fmt.Errorf("token endpoint response read failed: %w", err)
	}

	var out tokenResponse
	_ = json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return Credential{}, fmt.Errorf("token endpoint: status=%d: %s", resp.StatusCode, out.Error)
		}
		return Credential{}, fmt.Errorf("token endpoint: status=%d", resp.StatusCode)
	}
	if out.Token == "" {
		return Credential{}, fmt.Errorf("token endpoint returned empty token")
	}

	c := Credential{Token: out.Token}
	if out.ExpiresIn > 0 {
		c.ExpiresAt = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	return c, nil
}
