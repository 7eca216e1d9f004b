package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"employee-assistant/cmd/backend/auth"
	"employee-assistant/cmd/backend/handlers"
	"employee-assistant/cmd/backend/middleware"
	"employee-assistant/cmd/backend/services"
)

// Deps 는 라우터가 연결하는 서비스들이다. Health 가 nil 이면 항상 ok 를 돌려준다.
type Deps struct {
	JWT            *auth.JWTManager
	Chat           *services.ChatService
	Conversations  *services.ConversationService
	Uploads        *services.UploadService
	Tokens         *services.TokenService
	AllowedOrigins []string
	Health         func(ctx context.Context) error
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	// 세션 ID 안의 %2F 를 경로 구분자로 보지 않는다.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), middleware.RequestTrace())
	r.Use(middleware.CORS(d.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := d.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/token", handlers.TokenHandler(d.Tokens))

	api := r.Group("/api/v1", auth.OptionalIdentity(d.JWT))
	{
		api.POST("/message", handlers.MessageHandler(d.Chat))
		api.GET("/conversations", handlers.ListConversationsHandler(d.Conversations))
		api.GET("/messages/:sessionId", handlers.MessagesHandler(d.Conversations))
		api.POST("/upload", handlers.UploadHandler(d.Uploads))
	}

	return r
}
