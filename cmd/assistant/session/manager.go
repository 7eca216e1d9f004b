// Package session 은 활성 대화, 메시지 로그, 전송 대기 상태, 대화 목록을 소유한다.
// 모든 상태 변경은 mu 안에서 일어나고 네트워크 호출 동안에는 잠금을 잡지 않는다.
// 호출 전에 잡아둔 epoch/intent 가 돌아왔을 때 달라져 있으면 그 결과는 버린다.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/clients/assistantclient"
	"employee-assistant/cmd/assistant/reconcile"
	"employee-assistant/cmd/internal/logger"
)

type (
	Message = reconcile.Message
	Role    = reconcile.Role
	Summary = reconcile.Summary
)

const (
	RoleUser      = reconcile.RoleUser
	RoleAssistant = reconcile.RoleAssistant
)

const DefaultGreeting = "Hello! I'm your employee assistant. Ask me about HR policies, IT help, benefits, payroll or training."

// ErrPending 는 이전 전송이나 대화 전환이 끝나지 않았을 때 돌려준다.
var ErrPending = apperr.Validation("send_user_turn", "Please wait for the current request to finish.")

// Client 는 Manager 가 쓰는 백엔드 호출이다. assistantclient.Client 가 구현한다.
type Client interface {
	SendTurn(ctx context.Context, sessionID, text string) (assistantclient.TurnReply, error)
	ListConversations(ctx context.Context, limit int) ([]assistantclient.ConversationRecord, error)
	FetchMessages(ctx context.Context, sessionID string) ([]assistantclient.TurnRecord, error)
}

type Options struct {
	Greeting string
	// NewID 는 새 세션 id 를 만든다. 비어 있으면 uuid 를 쓴다.
	NewID func() string
}

// TurnOutcome 은 SendUserTurn 의 결과다.
// Discarded 면 응답이 오기 전에 다른 세션이 채택되어 로그에 반영하지 않았다.
type TurnOutcome struct {
	SessionID  string
	Reply      Message
	Reassigned bool
	Discarded  bool
}

// SwitchOutcome 은 SwitchTo 의 결과다. Discarded 면 더 나중의 전환/새 대화가 이겼다.
type SwitchOutcome struct {
	SessionID string
	NoOp      bool
	Discarded bool
}

// Snapshot 은 렌더링용 복사본이다.
type Snapshot struct {
	SessionID string
	Log       []Message
	Pending   bool
	LastError error
}

type Manager struct {
	client   Client
	greeting string
	newID    func() string

	mu        sync.Mutex
	activeID  string
	log       []Message
	lastErr   error
	epoch     uint64
	intent    uint64
	sending   bool
	switching int

	refreshSeq    uint64
	conversations []Summary
	stale         bool
}

// NewManager 는 새 대화 하나를 시작한 상태의 Manager 를 만든다.
func NewManager(client Client, opts Options) *Manager {
	m := &Manager{
		client:   client,
		greeting: opts.Greeting,
		newID:    opts.NewID,
		stale:    true,
	}
	if m.greeting == "" {
		m.greeting = DefaultGreeting
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	m.StartNew()
	return m
}

// StartNew 는 새 세션 id 와 인사말 하나로 로그를 초기화한다. 네트워크를 쓰지 않는다.
func (m *Manager) StartNew() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.intent++
	m.adoptLocked(m.newID(), []Message{reconcile.AssistantMessage(m.greeting, nil)})
	logger.InfoWithFields("session started", logger.Fields{"session_id": m.activeID})
	return m.activeID
}

// SwitchTo 는 target 세션의 기록을 받아와 활성 세션으로 채택한다.
// 실패하거나 기록이 비어 있으면 현재 세션과 로그는 그대로 두고 오류를 돌려준다.
func (m *Manager) SwitchTo(ctx context.Context, target string) (SwitchOutcome, error) {
	const op = "switch_session"
	target = strings.TrimSpace(target)
	if target == "" {
		return SwitchOutcome{}, apperr.Validation(op, "Session ID is required")
	}

	m.mu.Lock()
	if target == m.activeID && len(m.log) > 0 {
		m.mu.Unlock()
		return SwitchOutcome{SessionID: target, NoOp: true}, nil
	}
	m.intent++
	intent := m.intent
	m.switching++
	m.mu.Unlock()

	records, err := m.client.FetchMessages(ctx, target)
	var msgs []Message
	if err == nil {
		msgs, err = reconcile.Messages(records)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.switching--

	if m.intent != intent {
		logger.DebugWithFields("stale switch result discarded", logger.Fields{"session_id": target})
		return SwitchOutcome{SessionID: target, Discarded: true}, nil
	}
	if err != nil {
		m.lastErr = err
		logger.WarnWithFields("session switch failed", logger.Fields{
			"session_id": target,
			"kind":       apperr.KindOf(err).String(),
			"error":      err.Error(),
		})
		return SwitchOutcome{SessionID: target}, err
	}

	m.adoptLocked(target, msgs)
	logger.InfoWithFields("session adopted", logger.Fields{"session_id": target, "messages": len(msgs)})
	return SwitchOutcome{SessionID: target}, nil
}

// SendUserTurn 은 사용자 메시지를 로그에 먼저 붙이고 백엔드로 보낸다.
// 실패하면 오류 설명을 담은 assistant 메시지를 붙이고 오류를 돌려준다.
func (m *Manager) SendUserTurn(ctx context.Context, text string) (TurnOutcome, error) {
	const op = "send_user_turn"
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnOutcome{}, apperr.Validation(op, "Message is required")
	}

	m.mu.Lock()
	if m.pendingLocked() {
		m.mu.Unlock()
		return TurnOutcome{}, ErrPending
	}
	m.log = append(m.log, reconcile.UserMessage(text))
	m.sending = true
	epoch := m.epoch
	sessionID := m.activeID
	m.mu.Unlock()

	reply, err := m.client.SendTurn(ctx, sessionID, text)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		// 다른 세션이 채택되면서 sending 도 이미 초기화되었다.
		logger.DebugWithFields("stale turn result discarded", logger.Fields{"session_id": sessionID})
		return TurnOutcome{SessionID: sessionID, Discarded: true}, nil
	}
	m.sending = false
	m.stale = true

	if err != nil {
		m.lastErr = err
		msg := reconcile.AssistantMessage(fmt.Sprintf("Sorry, something went wrong: %s", apperr.Describe(err)), nil)
		m.log = append(m.log, msg)
		logger.WarnWithFields("turn failed", logger.Fields{
			"session_id": sessionID,
			"kind":       apperr.KindOf(err).String(),
			"error":      err.Error(),
		})
		return TurnOutcome{SessionID: sessionID, Reply: msg}, err
	}

	out := TurnOutcome{SessionID: m.activeID}
	if reply.SessionID != "" && reply.SessionID != m.activeID {
		logger.InfoWithFields("session id reassigned by server", logger.Fields{
			"session_id":  reply.SessionID,
			"previous_id": m.activeID,
		})
		m.activeID = reply.SessionID
		out.SessionID = reply.SessionID
		out.Reassigned = true
	}
	m.lastErr = nil
	out.Reply = reconcile.AssistantMessage(reply.Response, reply.ReasoningTrace)
	m.log = append(m.log, out.Reply)
	return out, nil
}

// RefreshConversations 는 대화 목록을 다시 받아온다.
// 실패하면 이전 목록을 유지한 채 그 목록과 오류를 함께 돌려준다.
func (m *Manager) RefreshConversations(ctx context.Context, limit int) ([]Summary, error) {
	m.mu.Lock()
	m.refreshSeq++
	seq := m.refreshSeq
	m.mu.Unlock()

	records, err := m.client.ListConversations(ctx, limit)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		logger.WarnWithFields("conversation list refresh failed", logger.Fields{"error": err.Error()})
		return copySummaries(m.conversations), err
	}
	if seq == m.refreshSeq {
		m.conversations = reconcile.Summaries(records)
		m.stale = false
	}
	return copySummaries(m.conversations), nil
}

// Conversations 는 마지막으로 받아온 목록과, 그 뒤 전송이 있었는지(stale)를 돌려준다.
func (m *Manager) Conversations() ([]Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySummaries(m.conversations), m.stale
}

// AppendNotice 는 assistant 메시지를 로그에 붙인다. 업로드 확인 문구 등에 쓴다.
func (m *Manager) AppendNotice(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, reconcile.AssistantMessage(text, nil))
}

func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingLocked()
}

func (m *Manager) ActiveSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		SessionID: m.activeID,
		Log:       copyLog(m.log),
		Pending:   m.pendingLocked(),
		LastError: m.lastErr,
	}
}

func (m *Manager) pendingLocked() bool {
	return m.sending || m.switching > 0
}

// adoptLocked 는 다른 세션을 채택한다. 진행 중인 전송 결과는 epoch 비교로 버려진다.
func (m *Manager) adoptLocked(sessionID string, log []Message) {
	m.epoch++
	m.sending = false
	m.activeID = sessionID
	m.log = log
	m.lastErr = nil
}

func copyLog(log []Message) []Message {
	out := make([]Message, len(log))
	for i, msg := range log {
		out[i] = msg
		if msg.ReasoningTrace != nil {
			out[i].ReasoningTrace = append([]string{}, msg.ReasoningTrace...)
		}
	}
	return out
}

func copySummaries(list []Summary) []Summary {
	out := make([]Summary, len(list))
	copy(out, list)
	return out
}
