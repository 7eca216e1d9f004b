package dto

type ErrorResponseDTO struct {
	Error string `json:"error"`
}

type MessageRequestDTO struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type MessageResponseDTO struct {
	Response      string   `json:"response"`
	ThinkingSteps []string `json:"thinkingSteps"`
	SessionID     string   `json:"sessionId"`
}

type ConversationDTO struct {
	SessionID     string `json:"sessionId"`
	LatestMessage string `json:"latestMessage"`
	Timestamp     string `json:"timestamp"`
	Username      string `json:"username"`
}

type ListConversationsResponseDTO struct {
	Conversations []ConversationDTO `json:"conversations"`
}

type MessageRecordDTO struct {
	Timestamp     string   `json:"timestamp"`
	UserQuery     string   `json:"userQuery"`
	Response      string   `json:"response"`
	ThinkingSteps []string `json:"thinkingSteps"`
}

type MessagesResponseDTO struct {
	SessionID string             `json:"sessionId"`
	Messages  []MessageRecordDTO `json:"messages"`
}

type UploadFileDTO struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type UploadRequestDTO struct {
	Folder string          `json:"folder"`
	Files  []UploadFileDTO `json:"files"`
}

type UploadResponseDTO struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Files   []string `json:"files"`
	Folder  string   `json:"folder"`
}

type TokenRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponseDTO struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}
