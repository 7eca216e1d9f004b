// Package agent 는 질문에 답하는 백엔드 구현들이다.
package agent

import (
	"context"
	"strings"
)

// Turn 은 이전 대화 한 턴이다. 모델에 history 로 넘긴다.
type Turn struct {
	UserQuery string
	Response  string
}

type Request struct {
	SessionID string
	UserID    string
	Message   string
	History   []Turn
}

type Answer struct {
	Text          string
	ThinkingSteps []string
}

type Answerer interface {
	Answer(ctx context.Context, req Request) (Answer, error)
	Name() string
}

// EchoAnswerer 는 모델 키가 없을 때 쓰는 로컬 구현이다.
type EchoAnswerer struct{}

func (EchoAnswerer) Name() string { return "echo" }

func (EchoAnswerer) Answer(_ context.Context, req Request) (Answer, error) {
	return Answer{
		Text: "You asked: " + strings.TrimSpace(req.Message),
		ThinkingSteps: []string{
			"No answering model is configured, echoing the question.",
		},
	}, nil
}
