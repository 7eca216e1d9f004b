package assistantclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/auth"
	"employee-assistant/cmd/internal/httpclient"
	"employee-assistant/cmd/internal/trace"
)

const maxBodySize = 5 * 1024 * 1024

// Endpoints 는 BaseURL 기준 상대 경로들이다.
type Endpoints struct {
	Message  string
	History  string
	Messages string
	Upload   string
}

// Client는 어시스턴트 백엔드의 메시지/히스토리/업로드 API를 호출하는 얇은 클라이언트다.
// 상태를 갖지 않으며, 모든 실패는 apperr.Error 로 정규화해서 돌려준다.
type Client struct {
	base        *httpclient.BaseClient
	endpoints   Endpoints
	credentials auth.Provider
}

// New 는 클라이언트를 생성한다. credentials 가 nil 이면 인증 헤더 없이 호출한다.
func New(base *httpclient.BaseClient, endpoints Endpoints, credentials auth.Provider) *Client {
	return &Client{base: base, endpoints: endpoints, credentials: credentials}
}

// SendTurn 은 POST <message-endpoint> 로 사용자 메시지를 보낸다.
// text 는 호출자가 trim 한 값이어야 하며 비어 있으면 요청하지 않는다.
func (c *Client) SendTurn(ctx context.Context, sessionID, text string) (TurnReply, error) {
	const op = "send_turn"
	if strings.TrimSpace(text) == "" {
		return TurnReply{}, apperr.Validation(op, "Message is required")
	}

	var out SendTurnResponse
	payload := SendTurnRequest{Message: text, SessionID: sessionID}
	if err := c.do(trace.WithSession(ctx, sessionID), op, http.MethodPost, c.endpoints.Message, nil, payload, &out); err != nil {
		return TurnReply{}, err
	}

	reply := TurnReply{
		SessionID:      out.SessionID,
		Response:       out.Response,
		ReasoningTrace: out.ThinkingSteps,
	}
	if reply.SessionID == "" {
		reply.SessionID = sessionID
	}
	if reply.ReasoningTrace == nil {
		reply.ReasoningTrace = []string{}
	}
	return reply, nil
}

// ListConversations 는 GET <history-endpoint>?limit=n 으로 대화 목록을 조회한다.
func (c *Client) ListConversations(ctx context.Context, limit int) ([]ConversationRecord, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}

	var out ListConversationsResponse
	if err := c.do(ctx, "list_conversations", http.MethodGet, c.endpoints.History, query, nil, &out); err != nil {
		return nil, err
	}
	if out.Conversations == nil {
		return []ConversationRecord{}, nil
	}
	return out.Conversations, nil
}

// FetchMessages 는 GET <messages-endpoint>/<sessionId> 로 세션의 원본 턴 레코드를 조회한다.
// 빈 목록은 성공이며 전송 실패와 구분된다.
func (c *Client) FetchMessages(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	const op = "fetch_messages"
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Validation(op, "Session ID is required")
	}
	// 세션 ID 는 경로 한 세그먼트다. . 과 .. 는 escape 해도 상위 경로로 해석된다.
	if sessionID == "." || sessionID == ".." {
		return nil, apperr.Validation(op, "Invalid session ID")
	}

	var out FetchMessagesResponse
	relPath := path.Join(c.endpoints.Messages, url.PathEscape(sessionID))
	if err := c.do(trace.WithSession(ctx, sessionID), op, http.MethodGet, relPath, nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Messages == nil {
		return []TurnRecord{}, nil
	}
	return out.Messages, nil
}

// Upload 는 POST <upload-endpoint> 로 인코딩된 파일 묶음을 제출한다.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (UploadResponse, error) {
	var out UploadResponse
	if err := c.do(ctx, "upload", http.MethodPost, c.endpoints.Upload, nil, req, &out); err != nil {
		return UploadResponse{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, relPath string, query url.Values, payload any, out any) error {
	if trace.RequestIDFromContext(ctx) == "" {
		ctx = trace.WithRequestAndSpan(ctx, trace.GenerateID(), 0)
	}

	var body []byte
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return apperr.Validation(op, fmt.Sprintf("request encoding failed: %v", err))
		}
		body = buf
	}

	req, err := c.base.NewJSONRequest(ctx, method, relPath, query, body)
	if err != nil {
		return apperr.Validation(op, fmt.Sprintf("invalid request: %v", err))
	}
	if err := c.authorize(ctx, op, req); err != nil {
		return err
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return apperr.Unreachable(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return apperr.Unreachable(op, fmt.Errorf("response read failed: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.invalidateCredential()
		}
		return apperr.FromStatus(op, resp.StatusCode, serverMessage(data))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apperr.Error{
			Kind:       apperr.KindServerFault,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    "malformed response from assistant service",
			Cause:      err,
		}
	}
	return nil
}

// authorize 는 자격 증명이 있으면 Authorization 헤더를 붙인다.
// Provider 가 없으면 익명 요청으로 보내고 판단은 서버에 맡긴다.
func (c *Client) authorize(ctx context.Context, op string, req *http.Request) error {
	if c.credentials == nil {
		return nil
	}
	cred, err := c.credentials.Credential(ctx)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindAuthUnavailable {
			return err
		}
		return apperr.AuthUnavailable(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	return nil
}

func (c *Client) invalidateCredential() {
	if inv, ok := c.credentials.(interface{ Invalidate() }); ok {
		inv.Invalidate()
	}
}

// serverMessage 는 에러 바디의 message 또는 error 필드를 꺼낸다.
func serverMessage(data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
