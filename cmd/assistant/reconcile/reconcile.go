// Package reconcile 는 서버 대화 기록을 클라이언트 메시지 로그로 변환한다. I/O 는 없다.
package reconcile

import (
	"strings"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/clients/assistantclient"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 는 로그의 한 줄이다. ReasoningTrace 는 assistant 메시지에서만 nil 이 아니다.
type Message struct {
	Role           Role
	Content        string
	ReasoningTrace []string
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string, trace []string) Message {
	if trace == nil {
		trace = []string{}
	}
	return Message{Role: RoleAssistant, Content: content, ReasoningTrace: trace}
}

// Summary 는 대화 목록의 한 행이다.
type Summary struct {
	SessionID            string
	LatestMessagePreview string
	Timestamp            string
}

// Messages 는 기록을 순서대로 펼친다. 레코드마다 질문이 있으면 user, 답변이 있으면
// assistant 메시지를 만들고 둘 다 없으면 건너뛴다. 결과가 비면 ErrNoContent 를 돌려준다.
func Messages(records []assistantclient.TurnRecord) ([]Message, error) {
	out := make([]Message, 0, len(records)*2)
	for _, r := range records {
		if present(r.UserQuery) {
			out = append(out, UserMessage(*r.UserQuery))
		}
		if present(r.Response) {
			out = append(out, AssistantMessage(*r.Response, copyTrace(r.ThinkingSteps)))
		}
	}
	if len(out) == 0 {
		return nil, apperr.NoContent("reconcile_messages", "conversation has no messages")
	}
	return out, nil
}

// Summaries 는 서버 순서를 유지한 채 목록 행으로 바꾼다.
func Summaries(records []assistantclient.ConversationRecord) []Summary {
	out := make([]Summary, 0, len(records))
	for _, r := range records {
		out = append(out, Summary{
			SessionID:            r.SessionID,
			LatestMessagePreview: r.LatestMessage,
			Timestamp:            r.Timestamp,
		})
	}
	return out
}

// 서버는 빠진 필드를 "" 로 채워 보내므로 공백뿐인 값도 없는 것으로 본다.
func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func copyTrace(steps []string) []string {
	out := make([]string, len(steps))
	copy(out, steps)
	return out
}
