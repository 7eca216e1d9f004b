package agent

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultSystemInstruction = `
You are an internal employee assistant. Answer questions about HR policies, IT helpdesk procedures,
benefits, payroll and training. Be concise and factual. If you do not know the answer, say so and
suggest which team to contact. Do not invent policy details.
`

// GeminiAnswerer 는 Gemini 로 답한다. 모델이 돌려준 thought 파트는 ThinkingSteps 로 옮긴다.
type GeminiAnswerer struct {
	client            *genai.Client
	model             string
	systemInstruction string
}

func NewGeminiAnswerer(ctx context.Context, apiKey, model, systemInstruction string) (*GeminiAnswerer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(systemInstruction) == "" {
		systemInstruction = defaultSystemInstruction
	}
	return &GeminiAnswerer{client: client, model: model, systemInstruction: systemInstruction}, nil
}

func (g *GeminiAnswerer) Name() string { return g.model }

func (g *GeminiAnswerer) Answer(ctx context.Context, req Request) (Answer, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, BuildContents(req), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: g.systemInstruction}}},
		ThinkingConfig:    &genai.ThinkingConfig{IncludeThoughts: true},
	})
	if err != nil {
		return Answer{}, err
	}
	return FromResponse(result)
}

// BuildContents 는 이전 턴을 user/model 순서로 펼치고 마지막에 이번 질문을 붙인다.
func BuildContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)*2+1)
	for _, t := range req.History {
		if t.UserQuery != "" {
			contents = append(contents, genai.NewContentFromText(t.UserQuery, genai.RoleUser))
		}
		if t.Response != "" {
			contents = append(contents, genai.NewContentFromText(t.Response, genai.RoleModel))
		}
	}
	return append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))
}

// FromResponse 는 첫 후보의 파트를 답변과 사고 과정으로 나눈다.
func FromResponse(resp *genai.GenerateContentResponse) (Answer, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Answer{}, fmt.Errorf("empty response from model")
	}

	var text strings.Builder
	steps := []string{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if part.Thought {
			steps = append(steps, strings.TrimSpace(part.Text))
			continue
		}
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return Answer{}, fmt.Errorf("model returned no answer text")
	}
	return Answer{Text: text.String(), ThinkingSteps: steps}, nil
}
