package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"employee-assistant/cmd/backend/agent"
	"employee-assistant/cmd/backend/auth"
	"employee-assistant/cmd/backend/dto"
	"employee-assistant/cmd/internal/logger"
	"employee-assistant/models"
)

type ChatService struct {
	answerer agent.Answerer
	store    ConversationStore
	logs     AnswerLogStore
	retries  int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// NewChatService 는 logs 가 nil 이면 답변 시도 기록을 남기지 않는다.
func NewChatService(answerer agent.Answerer, store ConversationStore, logs AnswerLogStore, retries int, backoff time.Duration) *ChatService {
	if retries <= 0 {
		retries = 1
	}
	return &ChatService{
		answerer: answerer,
		store:    store,
		logs:     logs,
		retries:  retries,
		backoff:  backoff,
		sleep:    sleepContext,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send 는 질문에 답하고 턴을 저장한다. 답변은 최대 retries 번, 지수 백오프로 재시도한다.
// 저장 실패는 로그만 남기고 응답은 그대로 돌려준다.
func (s *ChatService) Send(ctx context.Context, id auth.Identity, message, sessionID string) (dto.MessageResponseDTO, *ServiceError) {
	message = strings.TrimSpace(message)
	if message == "" {
		return dto.MessageResponseDTO{}, badRequest("Message is required")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	req := agent.Request{
		SessionID: sessionID,
		UserID:    id.UserID,
		Message:   message,
		History:   s.history(ctx, id, sessionID),
	}

	answer, err := s.answerWithRetry(ctx, req)
	if errors.Is(err, agent.ErrQuotaExceeded) {
		return dto.MessageResponseDTO{}, &ServiceError{StatusCode: http.StatusTooManyRequests, Message: "Daily answer quota exceeded", Cause: err}
	}
	if err != nil {
		return dto.MessageResponseDTO{}, internal(fmt.Sprintf("Failed after %d attempts: %v", s.retries, err), err)
	}

	turn := models.ConversationTurn{
		UserID:        id.UserID,
		Username:      id.Username,
		SessionID:     sessionID,
		UserQuery:     message,
		Response:      answer.Text,
		ThinkingSteps: answer.ThinkingSteps,
		Timestamp:     s.now(),
	}
	if err := s.store.Insert(ctx, turn); err != nil {
		logger.ErrorWithFields("conversation save failed", logger.Fields{
			"session_id": sessionID,
			"user_id":    id.UserID,
			"error":      err.Error(),
		})
	}

	steps := answer.ThinkingSteps
	if steps == nil {
		steps = []string{}
	}
	return dto.MessageResponseDTO{Response: answer.Text, ThinkingSteps: steps, SessionID: sessionID}, nil
}

func (s *ChatService) history(ctx context.Context, id auth.Identity, sessionID string) []agent.Turn {
	turns, err := s.store.BySession(ctx, id.UserID, sessionID)
	if err != nil {
		logger.WarnWithFields("conversation history load failed", logger.Fields{"session_id": sessionID, "error": err.Error()})
		return nil
	}
	out := make([]agent.Turn, 0, len(turns))
	for _, t := range turns {
		out = append(out, agent.Turn{UserQuery: t.UserQuery, Response: t.Response})
	}
	return out
}

func (s *ChatService) answerWithRetry(ctx context.Context, req agent.Request) (agent.Answer, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		start := time.Now()
		answer, err := s.answerer.Answer(ctx, req)
		s.record(ctx, req.SessionID, attempt, time.Since(start), err)
		if err == nil {
			return answer, nil
		}
		lastErr = err

		fields := logger.Fields{
			"session_id": req.SessionID,
			"attempt":    attempt,
			"model":      s.answerer.Name(),
			"error":      err.Error(),
		}
		if attempt == s.retries || errors.Is(err, agent.ErrQuotaExceeded) {
			logger.ErrorWithFields("answer failed, retries exhausted", fields)
			break
		}
		wait := s.backoff * time.Duration(1<<(attempt-1))
		fields["backoff"] = wait.String()
		logger.WarnWithFields("answer failed, retrying", fields)
		if err := s.sleep(ctx, wait); err != nil {
			return agent.Answer{}, err
		}
	}
	return agent.Answer{}, lastErr
}

func (s *ChatService) record(ctx context.Context, sessionID string, attempt int, d time.Duration, answerErr error) {
	if s.logs == nil {
		return
	}
	entry := models.AnswerLog{
		SessionID:   sessionID,
		ModelName:   s.answerer.Name(),
		Attempt:     attempt,
		DurationMs:  d.Milliseconds(),
		RequestedAt: s.now(),
	}
	if answerErr != nil {
		msg := answerErr.Error()
		entry.ErrorMessage = &msg
	}
	if err := s.logs.Insert(ctx, entry); err != nil {
		logger.WarnWithFields("answer log save failed", logger.Fields{"error": err.Error()})
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
