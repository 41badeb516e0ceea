// Package messaging 把行为事件发往 Kafka，供分析侧消费者订阅。
package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/interaction/domain"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

// interactionEvent Kafka 消息体
type interactionEvent struct {
	UserID    string  `json:"user_id"`
	ProductID uint    `json:"product_id"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	CreatedAt int64   `json:"created_at"`
}

// KafkaEventPublisher 实现 domain.EventPublisher
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建 Kafka 行为事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// PublishInteraction 发布行为事件，按用户维度分区
func (p *KafkaEventPublisher) PublishInteraction(ctx context.Context, interaction *domain.Interaction) error {
	event := interactionEvent{
		UserID:    interaction.UserID,
		ProductID: interaction.ProductID,
		Type:      string(interaction.Type),
		Value:     interaction.Value,
		CreatedAt: interaction.CreatedAt.Unix(),
	}
	return p.producer.SendMessage(ctx, p.topic, fmt.Sprintf("user:%s", interaction.UserID), event)
}
