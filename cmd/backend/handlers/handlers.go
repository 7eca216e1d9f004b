package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"employee-assistant/cmd/backend/auth"
	"employee-assistant/cmd/backend/dto"
	"employee-assistant/cmd/backend/services"
	"employee-assistant/cmd/internal/logger"
	"employee-assistant/cmd/internal/trace"
)

func writeServiceError(c *gin.Context, serr *services.ServiceError) {
	if serr.StatusCode >= http.StatusInternalServerError {
		fields := logger.Fields{
			"path":       c.Request.URL.Path,
			"status":     serr.StatusCode,
			"request_id": trace.RequestIDFromContext(c.Request.Context()),
		}
		if serr.Cause != nil {
			fields["error"] = serr.Cause.Error()
		}
		logger.ErrorWithFields("request failed", fields)
	}
	c.JSON(serr.StatusCode, dto.ErrorResponseDTO{Error: serr.Message})
}

// MessageHandler 는 POST /api/v1/message
func MessageHandler(svc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.MessageRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}

		ctx := trace.WithSession(c.Request.Context(), req.SessionID)
		resp, serr := svc.Send(ctx, auth.IdentityFrom(c), req.Message, req.SessionID)
		if serr != nil {
			writeServiceError(c, serr)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ListConversationsHandler 는 GET /api/v1/conversations?limit=n
// limit 이 숫자가 아니면 기본값을 쓴다.
func ListConversationsHandler(svc *services.ConversationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

		list, serr := svc.List(c.Request.Context(), auth.IdentityFrom(c), limit)
		if serr != nil {
			writeServiceError(c, serr)
			return
		}
		c.JSON(http.StatusOK, dto.ListConversationsResponseDTO{Conversations: list})
	}
}

// MessagesHandler 는 GET /api/v1/messages/:sessionId
func MessagesHandler(svc *services.ConversationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")

		msgs, serr := svc.Messages(c.Request.Context(), auth.IdentityFrom(c), sessionID)
		if serr != nil {
			writeServiceError(c, serr)
			return
		}
		c.JSON(http.StatusOK, dto.MessagesResponseDTO{SessionID: sessionID, Messages: msgs})
	}
}

// UploadHandler 는 POST /api/v1/upload
func UploadHandler(svc *services.UploadService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.UploadRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}

		resp, serr := svc.Upload(c.Request.Context(), auth.IdentityFrom(c), req)
		if serr != nil {
			writeServiceError(c, serr)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// TokenHandler 는 POST /auth/token. 개발용 사용자에게만 토큰을 발급한다.
func TokenHandler(svc *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.TokenRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}

		resp, serr := svc.Issue(req.Username, req.Password)
		if serr != nil {
			writeServiceError(c, serr)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
