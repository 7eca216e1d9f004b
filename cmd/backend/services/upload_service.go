package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"employee-assistant/cmd/backend/auth"
	"employee-assistant/cmd/backend/dto"
	"employee-assistant/cmd/internal/eventbus"
	"employee-assistant/cmd/internal/logger"
	"employee-assistant/models"
)

var AllowedFolders = []string{"hr", "it_helpdesk", "benefits", "payroll", "training"}

var fileNamePattern = regexp.MustCompile(`(?i)^[\w\-. ]+\.(pdf|doc|docx)$`)

type UploadService struct {
	docs      DocumentStore
	publisher eventbus.Publisher
	topic     string
	now       func() time.Time
}

// NewUploadService 는 publisher 가 nil 이면 이벤트 없이 저장만 한다.
func NewUploadService(docs DocumentStore, publisher eventbus.Publisher, topic string) *UploadService {
	return &UploadService{
		docs:      docs,
		publisher: publisher,
		topic:     topic,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeFolder 는 소문자로 바꾸고 공백을 _ 로 바꾼다. ("IT Helpdesk" -> "it_helpdesk")
func NormalizeFolder(folder string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(folder)), " ", "_")
}

func isAllowedFolder(folder string) bool {
	for _, f := range AllowedFolders {
		if f == folder {
			return true
		}
	}
	return false
}

// Upload 는 유효한 파일만 저장하고 파일마다 document.uploaded 이벤트를 발행한다.
// 이름이 맞지 않거나 디코딩할 수 없는 파일은 건너뛴다.
func (s *UploadService) Upload(ctx context.Context, id auth.Identity, req dto.UploadRequestDTO) (dto.UploadResponseDTO, *ServiceError) {
	folder := NormalizeFolder(req.Folder)
	if !isAllowedFolder(folder) {
		return dto.UploadResponseDTO{}, badRequest(fmt.Sprintf("Invalid folder. Must be one of: %s", strings.Join(AllowedFolders, ", ")))
	}
	if len(req.Files) == 0 {
		return dto.UploadResponseDTO{}, badRequest("No files provided")
	}

	stored := []string{}
	for _, f := range req.Files {
		fields := logger.Fields{"folder": folder, "file_name": f.Name}
		if !fileNamePattern.MatchString(f.Name) {
			logger.WarnWithFields("upload skipped: invalid file name", fields)
			continue
		}
		data, err := decodeContent(f.Content)
		if err != nil {
			fields["error"] = err.Error()
			logger.WarnWithFields("upload skipped: invalid content", fields)
			continue
		}

		docID, err := s.docs.Insert(ctx, models.Document{
			Folder:      folder,
			FileName:    f.Name,
			ContentType: f.Type,
			Size:        len(data),
			Data:        data,
			UploadedBy:  id.UserID,
			UploadedAt:  s.now(),
		})
		if err != nil {
			fields["error"] = err.Error()
			logger.ErrorWithFields("upload skipped: document save failed", fields)
			continue
		}
		stored = append(stored, f.Name)
		s.publish(ctx, id, docID, folder, f, len(data))
	}

	if len(stored) == 0 {
		return dto.UploadResponseDTO{}, badRequest("No valid files were uploaded")
	}
	return dto.UploadResponseDTO{
		Success: true,
		Message: fmt.Sprintf("Successfully uploaded %d file(s) to %s", len(stored), folder),
		Files:   stored,
		Folder:  folder,
	}, nil
}

func (s *UploadService) publish(ctx context.Context, id auth.Identity, docID, folder string, f dto.UploadFileDTO, size int) {
	if s.publisher == nil {
		return
	}
	payload := eventbus.DocumentUploadedEvent{
		BaseEvent: eventbus.BaseEvent{
			ID:        docID,
			Type:      eventbus.DocumentUploaded,
			Timestamp: s.now(),
			Source:    "backend",
		},
		DocumentID:  docID,
		Folder:      folder,
		FileName:    f.Name,
		ContentType: f.Type,
		Size:        size,
		UploadedBy:  id.UserID,
	}
	evt, err := eventbus.NewJSONEvent(docID, payload, 0)
	if err == nil {
		err = s.publisher.Publish(ctx, s.topic, evt)
	}
	if err != nil {
		// 문서는 저장되었으므로 업로드는 성공으로 둔다.
		logger.ErrorWithFields("document event publish failed", logger.Fields{
			"document_id": docID,
			"topic":       s.topic,
			"error":       err.Error(),
		})
	}
}

// decodeContent 는 data URL 이면 base64, 뒤쪽만 디코딩한다.
func decodeContent(content string) ([]byte, error) {
	if idx := strings.Index(content, "base64,"); idx >= 0 {
		content = content[idx+len("base64,"):]
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty content")
	}
	return base64.StdEncoding.DecodeString(content)
}
