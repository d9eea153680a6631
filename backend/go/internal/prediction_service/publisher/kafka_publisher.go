package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageWriter 是 EventPublisher 用到的 kafka.Writer 方法子集。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher 负责把预测记录事件发布到 Kafka。
type EventPublisher struct {
	writer MessageWriter
}

// NewEventPublisher 为指定主题创建一个异步的 EventPublisher。
// 写入不会阻塞请求，投递失败只记录日志。
func NewEventPublisher(brokers []string, topic string, log *logger.Logger) *EventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil && log != nil {
				log.WithError(models.ErrorInfo{Message: err.Error(), Type: "KafkaDeliveryError"}).
					WithPayload(map[string]interface{}{"topic": topic, "messages": len(messages)}).
					Warn("事件投递失败")
			}
		},
	}
	return NewEventPublisherWithWriter(writer)
}

// NewEventPublisherWithWriter 使用已有的 writer 创建 EventPublisher。
func NewEventPublisherWithWriter(w MessageWriter) *EventPublisher {
	return &EventPublisher{writer: w}
}

// Publish 以 owner_id 为键发送事件，同一用户的事件落在同一分区并保持顺序。
func (p *EventPublisher) Publish(ctx context.Context, event models.PredictionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OwnerID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close 关闭底层的 writer 连接。
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
