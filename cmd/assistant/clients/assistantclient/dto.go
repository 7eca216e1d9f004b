package assistantclient

// -------------------- Message --------------------

type SendTurnRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type SendTurnResponse struct {
	SessionID     string   `json:"sessionId"`
	Response      string   `json:"response"`
	ThinkingSteps []string `json:"thinkingSteps,omitempty"`
}

// TurnReply 는 SendTurn 결과다. SessionID 는 요청한 값과 다를 수 있으며(서버 재할당) 호출자가 채택해야 한다.
type TurnReply struct {
	SessionID      string
	Response       string
	ReasoningTrace []string
}

// -------------------- History --------------------

type ConversationRecord struct {
	SessionID     string `json:"sessionId"`
	LatestMessage string `json:"latestMessage"`
	Timestamp     string `json:"timestamp"`
	Username      string `json:"username,omitempty"`
}

type ListConversationsResponse struct {
	Conversations []ConversationRecord `json:"conversations"`
}

// TurnRecord 는 서버가 저장한 한 턴의 원본 레코드다. 각 필드는 없을 수 있다.
type TurnRecord struct {
	Timestamp     string   `json:"timestamp,omitempty"`
	UserQuery     *string  `json:"userQuery,omitempty"`
	Response      *string  `json:"response,omitempty"`
	ThinkingSteps []string `json:"thinkingSteps,omitempty"`
}

type FetchMessagesResponse struct {
	SessionID string       `json:"sessionId,omitempty"`
	Messages  []TurnRecord `json:"messages"`
}

// -------------------- Upload --------------------

// UploadFile 의 Content 는 base64 data URL(data:<mime>;base64,...) 이다.
type UploadFile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

type UploadRequest struct {
	Folder string       `json:"folder"`
	Files  []UploadFile `json:"files"`
}

type UploadResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Files   []string `json:"files"`
	Folder  string   `json:"folder"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
