package console

import (
	"strings"

	"employee-assistant/cmd/assistant/auth"
	"employee-assistant/cmd/assistant/clients/assistantclient"
	"employee-assistant/cmd/assistant/session"
	"employee-assistant/cmd/assistant/upload"
	"employee-assistant/cmd/internal/httpclient"
	"employee-assistant/config"
)

// App 은 명령들이 공유하는 의존성 묶음이다.
type App struct {
	Config   config.AssistantConfig
	Client   *assistantclient.Client
	Sessions *session.Manager
	Uploads  *upload.Orchestrator
}

// NewApp 은 설정으로 자격 증명 공급자, API 클라이언트, 세션 관리자를 조립한다.
func NewApp(cfg config.AssistantConfig) *App {
	httpCfg := httpclient.Config{Timeout: cfg.Timeout}
	base := httpclient.NewBaseClient(cfg.BaseURL, httpCfg)

	client := assistantclient.New(base, assistantclient.Endpoints{
		Message:  cfg.MessagePath,
		History:  cfg.HistoryPath,
		Messages: cfg.MessagesPath,
		Upload:   cfg.UploadPath,
	}, newProvider(cfg, httpCfg))

	return &App{
		Config:   cfg,
		Client:   client,
		Sessions: session.NewManager(client, session.Options{Greeting: cfg.Greeting}),
		Uploads:  upload.NewOrchestrator(client),
	}
}

// newProvider 는 고정 토큰, 토큰 엔드포인트, 익명 순으로 고른다.
// 익명이면 nil 을 돌려주고 클라이언트는 Authorization 없이 호출한다.
func newProvider(cfg config.AssistantConfig, httpCfg httpclient.Config) auth.Provider {
	a := cfg.Auth
	switch {
	case a.Token != "":
		return auth.NewCachingProvider(auth.StaticSource{Token: a.Token}, a.RefreshSkew)
	case a.TokenURL != "" && a.Username != "":
		tokenURL := a.TokenURL
		if strings.HasPrefix(tokenURL, "/") {
			tokenURL = strings.TrimRight(cfg.BaseURL, "/") + tokenURL
		}
		source := auth.NewTokenEndpointSource(httpclient.NewBaseClient(tokenURL, httpCfg), "", a.Username, a.Password)
		return auth.NewCachingProvider(source, a.RefreshSkew)
	default:
		return nil
	}
}
