package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"employee-assistant/cmd/internal/eventbus"
	"employee-assistant/cmd/internal/logger"
	"employee-assistant/models"
)

// JobStore 는 repositories.IngestionJobRepository 가 구현한다.
type JobStore interface {
	UpsertByDocument(ctx context.Context, job models.IngestionJob) error
}

// EventHandlers 는 업로드 이벤트를 ingestion job 으로 기록한다.
type EventHandlers struct {
	jobs           JobStore
	knowledgeBases map[string]string
}

func NewEventHandlers(jobs JobStore, knowledgeBases map[string]string) *EventHandlers {
	return &EventHandlers{jobs: jobs, knowledgeBases: knowledgeBases}
}

// KnowledgeBaseFor 는 폴더에 연결된 지식 베이스 ID 를 찾는다.
// it_helpdesk 폴더는 helpdesk 키로 설정된다.
func (h *EventHandlers) KnowledgeBaseFor(folder string) (string, bool) {
	key := folder
	if key == "it_helpdesk" {
		key = "helpdesk"
	}
	id, ok := h.knowledgeBases[key]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Dispatch 는 이벤트 타입을 보고 핸들러를 고른다. 모르는 타입은 커밋하고 넘어간다.
func (h *EventHandlers) Dispatch(ctx context.Context, evt eventbus.Event) error {
	var peek struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(evt.Payload, &peek); err != nil {
		return err
	}
	switch eventbus.EventType(peek.Type) {
	case eventbus.DocumentUploaded:
		v, err := eventbus.DecodeJSON[eventbus.DocumentUploadedEvent](evt)
		if err != nil {
			return err
		}
		return h.HandleDocumentUploaded(ctx, &v)
	default:
		return nil
	}
}

// HandleDocumentUploaded 는 ingestion job 을 STARTED 로 기록한다.
// 매핑이 없는 폴더는 재시도해도 소용없으므로 로그만 남긴다.
func (h *EventHandlers) HandleDocumentUploaded(ctx context.Context, event *eventbus.DocumentUploadedEvent) error {
	fields := logger.Fields{
		"document_id": event.DocumentID,
		"folder":      event.Folder,
		"file_name":   event.FileName,
	}

	kbID, ok := h.KnowledgeBaseFor(event.Folder)
	if !ok {
		logger.WarnWithFields("no knowledge base for folder, skipping", fields)
		return nil
	}
	fields["knowledge_base_id"] = kbID

	job := models.IngestionJob{
		KnowledgeBaseID: kbID,
		Folder:          event.Folder,
		DocumentID:      event.DocumentID,
		FileName:        event.FileName,
		Status:          models.IngestionStatusStarted,
	}
	if err := h.jobs.UpsertByDocument(ctx, job); err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("failed to record ingestion job", fields)
		return fmt.Errorf("record ingestion job: %w", err)
	}

	logger.InfoWithFields("ingestion job started", fields)
	return nil
}
