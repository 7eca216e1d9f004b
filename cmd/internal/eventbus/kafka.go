package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"employee-assistant/cmd/internal/logger"
)

// KafkaEventBus 는 confluent-kafka-go 기반 EventBus 구현체다.
type KafkaEventBus struct {
	Producer *kafka.Producer
	Brokers  string
}

func NewKafkaEventBus(brokers string) (*KafkaEventBus, error) {
	producerCfg := &kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           5,
	}
	// 업로드 이벤트는 메타데이터만 담지만 브로커 설정에 맞출 수 있게 열어둔다.
	if maxBytes := envInt("KAFKA_MESSAGE_MAX_BYTES"); maxBytes > 0 {
		(*producerCfg)["message.max.bytes"] = maxBytes
	}

	p, err := kafka.NewProducer(producerCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	// 전달 보고서
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					logger.ErrorWithFields("kafka delivery failed", logger.Fields{
						"topic": topicName(ev),
						"error": ev.TopicPartition.Error.Error(),
					})
				}
			case kafka.Error:
				logger.ErrorWithFields("kafka error", logger.Fields{"error": ev.Error()})
			}
		}
	}()

	return &KafkaEventBus{Producer: p, Brokers: brokers}, nil
}

func (k *KafkaEventBus) Close() {
	if k.Producer == nil {
		return
	}
	if remaining := k.Producer.Flush(5000); remaining > 0 {
		logger.WarnWithFields("kafka producer closed with unflushed messages", logger.Fields{"remaining": remaining})
	}
	k.Producer.Close()
	logger.InfoWithFields("kafka producer closed", nil)
}

// Publish 는 이벤트를 발행하고 전달 보고서를 기다린다.
func (k *KafkaEventBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	defer close(deliveryChan)

	err = k.Producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Key:            []byte(event.ID),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}

	select {
	case ev := <-deliveryChan:
		m := ev.(*kafka.Message)
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("deliver to %s: %w", topic, m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Subscribe 는 기본 토픽을 소비한다. handler 가 실패하면 다음 재시도 토픽으로,
// 재시도를 다 쓰면 DLQ 로 보낸다. 재발행에 성공한 뒤에만 오프셋을 커밋한다.
func (k *KafkaEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SubscribeTopics([]string{topic.Base()}, nil); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic.Base(), err)
	}
	logger.InfoWithFields("consumer started", logger.Fields{"group_id": groupID, "topic": topic.Base()})

	for {
		select {
		case <-ctx.Done():
			logger.InfoWithFields("consumer stopping", logger.Fields{"group_id": groupID})
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.ErrorWithFields("invalid event payload, skipping", logger.Fields{"topic": topicName(msg), "error": err.Error()})
			_, _ = c.CommitMessage(msg)
			continue
		}
		if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
			evt.MaxRetry = len(RetryDelays)
		}

		fields := logger.Fields{"event_id": evt.ID, "topic": topicName(msg), "retry": evt.Retry}
		logger.DebugWithFields("event received", fields)

		if herr := handler(ctx, evt); herr != nil {
			if !k.reschedule(ctx, topic, evt, herr) {
				continue
			}
		}

		if _, err := c.CommitMessage(msg); err != nil {
			logger.ErrorWithFields("offset commit failed", logger.Fields{"event_id": evt.ID, "error": err.Error()})
		}
	}
}

// reschedule 은 실패한 이벤트를 재시도 토픽이나 DLQ 로 보낸다. 발행에 실패하면 false.
func (k *KafkaEventBus) reschedule(ctx context.Context, topic Topic, evt Event, cause error) bool {
	evt.LastError = cause.Error()
	next := evt.Retry + 1

	target, err := topic.RetryTopic(next)
	if err != nil || next > evt.MaxRetry {
		target = topic.DLQ()
		logger.ErrorWithFields("event exhausted retries, sending to dlq", logger.Fields{
			"event_id": evt.ID,
			"dlq":      target,
			"error":    cause.Error(),
		})
	} else {
		evt.Retry = next
		logger.WarnWithFields("event failed, retry scheduled", logger.Fields{
			"event_id":  evt.ID,
			"retry":     evt.Retry,
			"max_retry": evt.MaxRetry,
			"topic":     target,
			"error":     cause.Error(),
		})
	}

	if err := k.Publish(ctx, target, evt); err != nil {
		logger.ErrorWithFields("reschedule publish failed, offset not committed", logger.Fields{
			"event_id": evt.ID,
			"topic":    target,
			"error":    err.Error(),
		})
		return false
	}
	return true
}

// StartRetryReinjector 는 재시도 토픽들을 소비하다가 지연 시간이 지난 메시지를 기본 토픽으로 되돌린다.
func (k *KafkaEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return err
	}
	defer c.Close()

	retryTopics := topic.RetryTopics()
	if err := c.SubscribeTopics(retryTopics, nil); err != nil {
		return fmt.Errorf("subscribe retry topics: %w", err)
	}
	logger.InfoWithFields("retry reinjector started", logger.Fields{
		"group_id": groupID,
		"topics":   strings.Join(retryTopics, ","),
	})

	for {
		select {
		case <-ctx.Done():
			logger.InfoWithFields("retry reinjector stopping", logger.Fields{"group_id": groupID})
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok {
				if kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kerr.IsFatal() {
					return fmt.Errorf("retry reinjector fatal error: %w", err)
				}
			}
			logger.ErrorWithFields("retry reinjector read failed", logger.Fields{"error": err.Error()})
			time.Sleep(500 * time.Millisecond)
			continue
		}

		name := topicName(msg)
		delay, ok := ParseRetryDelay(name)
		if !ok {
			logger.ErrorWithFields("unknown retry topic, skipping", logger.Fields{"topic": name})
			_, _ = c.CommitMessage(msg)
			continue
		}

		if wait := time.Until(msg.Timestamp.Add(delay)); wait > 0 {
			// 컨슈머를 오래 막지 않도록 짧게 쉬고 같은 오프셋으로 되돌아가 다시 확인한다.
			time.Sleep(min(max(wait, 50*time.Millisecond), 500*time.Millisecond))
			if err := c.Seek(msg.TopicPartition, 1000); err != nil {
				logger.ErrorWithFields("retry reinjector seek failed", logger.Fields{"error": err.Error()})
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.ErrorWithFields("invalid retry payload, skipping", logger.Fields{"topic": name, "error": err.Error()})
			_, _ = c.CommitMessage(msg)
			continue
		}

		logger.InfoWithFields("reinjecting event", logger.Fields{
			"event_id": evt.ID,
			"from":     name,
			"to":       topic.Base(),
			"retry":    evt.Retry,
		})
		if err := k.Publish(ctx, topic.Base(), evt); err != nil {
			logger.ErrorWithFields("reinject failed, offset not committed", logger.Fields{"event_id": evt.ID, "error": err.Error()})
			continue
		}
		if _, err := c.CommitMessage(msg); err != nil {
			logger.ErrorWithFields("offset commit failed", logger.Fields{"event_id": evt.ID, "error": err.Error()})
		}
	}
}

func (k *KafkaEventBus) newConsumer(groupID string) (*kafka.Consumer, error) {
	cfg := &kafka.ConfigMap{
		"bootstrap.servers":             k.Brokers,
		"group.id":                      groupID,
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false,
		"partition.assignment.strategy": "range",
	}
	if maxPoll := envInt("KAFKA_MAX_POLL_INTERVAL_MS"); maxPoll > 0 {
		(*cfg)["max.poll.interval.ms"] = maxPoll
	}
	c, err := kafka.NewConsumer(cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return c, nil
}

func topicName(msg *kafka.Message) string {
	if msg.TopicPartition.Topic == nil {
		return ""
	}
	return *msg.TopicPartition.Topic
}

// envInt 는 양의 정수 환경변수를 읽는다. 비었거나 잘못되면 0 을 돌려 라이브러리 기본값을 쓰게 한다.
func envInt(key string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		logger.WarnWithFields("ignoring invalid kafka env value", logger.Fields{"key": key, "value": raw})
		return 0
	}
	return v
}
