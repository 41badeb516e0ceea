// Package domain 包含用户行为事件的领域模型；interactions 表只追加、不更新不删除，
// 仅作为分析侧消费者的输入。
package domain

import (
	"context"

	"gorm.io/gorm"
)

// Type 行为类型
type Type string

const (
	TypeView     Type = "view"
	TypeCart     Type = "cart"
	TypePurchase Type = "purchase"
	TypeRating   Type = "rating"
)

// Interaction 行为事件
// Value 的含义随类型变化：purchase 为购买件数，rating 为评分值，其余为 1
type Interaction struct {
	gorm.Model
	UserID    string  `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	ProductID uint    `gorm:"column:product_id;index;not null" json:"product_id"`
	Type      Type    `gorm:"column:type;type:varchar(20);index;not null" json:"type"`
	Value     float64 `gorm:"column:value;not null;default:1" json:"value"`
}

// TableName 指定表名
func (Interaction) TableName() string { return "interactions" }

// InteractionRepository 行为事件仓储接口（只追加）
type InteractionRepository interface {
	Append(ctx context.Context, interaction *Interaction) error
}

// EventPublisher 行为事件消息发布接口
type EventPublisher interface {
	PublishInteraction(ctx context.Context, interaction *Interaction) error
}

// Recorder 行为记录接口：fire-and-forget，失败只记日志，永不向主流程返回错误
type Recorder interface {
	Record(ctx context.Context, userID string, productID uint, typ Type, value float64)
}
