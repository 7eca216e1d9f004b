package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"employee-assistant/cmd/backend/auth"
	"employee-assistant/cmd/backend/dto"
	"employee-assistant/models"
)

// 목록은 최근 scanLimit 개 턴 안에서만 세션을 모은다.
const (
	scanLimit       = 100
	maxListLimit    = 100
	timestampLayout = time.RFC3339
)

type ConversationService struct {
	store        ConversationStore
	defaultLimit int
}

func NewConversationService(store ConversationStore, defaultLimit int) *ConversationService {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &ConversationService{store: store, defaultLimit: defaultLimit}
}

// List 는 세션별 가장 최근 턴 하나씩을 최신순으로 돌려준다.
func (s *ConversationService) List(ctx context.Context, id auth.Identity, limit int) ([]dto.ConversationDTO, *ServiceError) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	turns, err := s.store.RecentByUser(ctx, id.UserID, scanLimit)
	if err != nil {
		return nil, internal("Failed to load conversations", err)
	}

	seen := map[string]bool{}
	latest := make([]models.ConversationTurn, 0, len(turns))
	for _, t := range turns {
		if t.SessionID == "" || seen[t.SessionID] {
			continue
		}
		seen[t.SessionID] = true
		latest = append(latest, t)
	}
	sort.SliceStable(latest, func(i, j int) bool {
		return latest[i].Timestamp.After(latest[j].Timestamp)
	})
	if len(latest) > limit {
		latest = latest[:limit]
	}

	out := make([]dto.ConversationDTO, 0, len(latest))
	for _, t := range latest {
		out = append(out, dto.ConversationDTO{
			SessionID:     t.SessionID,
			LatestMessage: t.UserQuery,
			Timestamp:     t.Timestamp.UTC().Format(timestampLayout),
			Username:      t.Username,
		})
	}
	return out, nil
}

// Messages 는 호출자 소유의 세션 턴을 오래된 순으로 돌려준다.
func (s *ConversationService) Messages(ctx context.Context, id auth.Identity, sessionID string) ([]dto.MessageRecordDTO, *ServiceError) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, badRequest("Session ID is required")
	}

	turns, err := s.store.BySession(ctx, id.UserID, sessionID)
	if err != nil {
		return nil, internal("Failed to load messages", err)
	}

	out := make([]dto.MessageRecordDTO, 0, len(turns))
	for _, t := range turns {
		steps := t.ThinkingSteps
		if steps == nil {
			steps = []string{}
		}
		out = append(out, dto.MessageRecordDTO{
			Timestamp:     t.Timestamp.UTC().Format(timestampLayout),
			UserQuery:     t.UserQuery,
			Response:      t.Response,
			ThinkingSteps: steps,
		})
	}
	return out, nil
}
