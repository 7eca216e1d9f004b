// Package eventbus 는 Kafka 기반 이벤트 발행/구독과 지연 재시도 토픽, DLQ 를 제공한다.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RetryDelays 는 재시도 횟수(1-based)별 지연 시간이다.
var RetryDelays = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

var ErrMaxRetryExceeded = errors.New("max retry exceeded")

// Topic 은 기본 토픽 이름에서 재시도/DLQ 토픽 이름을 만든다.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ 예: employee-assistant.document.uploaded.dlq
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// RetryTopics 는 모든 재시도 토픽 이름을 돌려준다. 형식은 <base>.retry.<n> 이다.
func (t Topic) RetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i := range RetryDelays {
		topics[i] = t.retryTopic(i + 1)
	}
	return topics
}

// RetryTopic 은 다음 재시도 횟수(1-based)에 해당하는 토픽이다.
func (t Topic) RetryTopic(retryCount int) (string, error) {
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	return t.retryTopic(retryCount), nil
}

func (t Topic) retryTopic(n int) string {
	return fmt.Sprintf("%s.retry.%d", t.base, n)
}

// ParseRetryDelay 는 "<base>.retry.<n>" 에서 RetryDelays[n-1] 을 돌려준다.
func ParseRetryDelay(name string) (time.Duration, bool) {
	idx := strings.LastIndex(name, ".retry.")
	if idx == -1 || idx+7 >= len(name) {
		return 0, false
	}
	n, err := strconv.Atoi(name[idx+7:])
	if err != nil || n <= 0 || n > len(RetryDelays) {
		return 0, false
	}
	return RetryDelays[n-1], true
}

// Event 는 Kafka 메시지 값으로 쓰는 봉투다.
type Event struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	LastError string          `json:"last_error,omitempty"`
}

type EventHandler func(ctx context.Context, event Event) error

type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

// Publisher 는 발행만 필요한 쪽(업로드 서비스)이 의존하는 부분이다.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

// NewJSONEvent 는 payload 를 JSON 으로 담은 Event 를 만든다. id 가 비면 uuid 를 쓴다.
func NewJSONEvent(id string, payload any, maxRetry int) (Event, error) {
	if maxRetry <= 0 || maxRetry > len(RetryDelays) {
		maxRetry = len(RetryDelays)
	}
	if id == "" {
		id = uuid.NewString()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("payload marshal failed: %w", err)
	}
	return Event{ID: id, Payload: b, MaxRetry: maxRetry}, nil
}

func DecodeJSON[T any](evt Event) (T, error) {
	var out T
	if err := json.Unmarshal(evt.Payload, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("payload unmarshal failed: %w", err)
	}
	return out, nil
}

// SubscribeJSON 은 payload 를 T 로 디코딩해서 handler 에 넘긴다.
func SubscribeJSON[T any](ctx context.Context, bus EventBus, groupID string, topic Topic, handler func(ctx context.Context, payload T, meta Event) error) error {
	return bus.Subscribe(ctx, groupID, topic, func(ctx context.Context, evt Event) error {
		v, err := DecodeJSON[T](evt)
		if err != nil {
			return err
		}
		return handler(ctx, v, evt)
	})
}
