// Package mysql 提供行为事件仓储接口的 MySQL GORM 实现（只追加）。
package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/interaction/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

type interactionRepository struct{ db *gorm.DB }

// NewInteractionRepository 创建行为事件仓储实例
func NewInteractionRepository(db *gorm.DB) domain.InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Append(ctx context.Context, interaction *domain.Interaction) error {
	if err := r.db.WithContext(ctx).Create(interaction).Error; err != nil {
		logger.Error(ctx, "interaction_repository.append failed",
			"user_id", interaction.UserID,
			"product_id", interaction.ProductID,
			"type", interaction.Type,
			"error", err,
		)
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	return nil
}
