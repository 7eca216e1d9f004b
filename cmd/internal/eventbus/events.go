package eventbus

import "time"

type EventType string

const DocumentUploaded EventType = "document.uploaded"

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// DocumentUploadedEvent 는 업로드된 문서 하나마다 발행된다. 인제스터가 소비한다.
type DocumentUploadedEvent struct {
	BaseEvent
	DocumentID  string `json:"document_id"`
	Folder      string `json:"folder"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	UploadedBy  string `json:"uploaded_by"`
}
