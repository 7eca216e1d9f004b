package services

import (
	"context"

	"employee-assistant/models"
)

// ConversationStore 는 repositories.ConversationRepository 가 구현한다.
type ConversationStore interface {
	Insert(ctx context.Context, turn models.ConversationTurn) error
	RecentByUser(ctx context.Context, userID string, limit int) ([]models.ConversationTurn, error)
	BySession(ctx context.Context, userID, sessionID string) ([]models.ConversationTurn, error)
}

type DocumentStore interface {
	Insert(ctx context.Context, doc models.Document) (string, error)
}

type AnswerLogStore interface {
	Insert(ctx context.Context, log models.AnswerLog) error
}
