package services

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"employee-assistant/models"
)

// MemoryStore 는 Mongo 없이 돌릴 때 쓰는 저장소다. backend.storage: memory 와 테스트에서 쓴다.
type MemoryStore struct {
	mu        sync.Mutex
	turns     []models.ConversationTurn
	documents []models.Document
	logs      []models.AnswerLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// MemoryDocuments 는 같은 MemoryStore 를 DocumentStore 로 노출한다.
type MemoryDocuments struct{ *MemoryStore }

// MemoryAnswerLogs 는 같은 MemoryStore 를 AnswerLogStore 로 노출한다.
type MemoryAnswerLogs struct{ *MemoryStore }

func (m *MemoryStore) Insert(_ context.Context, turn models.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	turn.ID = primitive.NewObjectID()
	m.turns = append(m.turns, turn)
	return nil
}

func (m *MemoryStore) RecentByUser(_ context.Context, userID string, limit int) ([]models.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.ConversationTurn{}
	for _, t := range m.turns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) BySession(_ context.Context, userID, sessionID string) ([]models.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.ConversationTurn{}
	for _, t := range m.turns {
		if t.UserID == userID && t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (d MemoryDocuments) Insert(_ context.Context, doc models.Document) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc.ID = primitive.NewObjectID()
	d.documents = append(d.documents, doc)
	return doc.ID.Hex(), nil
}

func (l MemoryAnswerLogs) Insert(_ context.Context, log models.AnswerLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, log)
	return nil
}

// Documents 는 저장된 문서 사본을 돌려준다.
func (m *MemoryStore) Documents() []models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Document(nil), m.documents...)
}

func (m *MemoryStore) AnswerLogs() []models.AnswerLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AnswerLog(nil), m.logs...)
}
