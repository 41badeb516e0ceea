// Package domain 推荐网关的领域模型。
// 评分来自外部推荐服务；外部不可用时回落到本地热门度排序，
// 结果标记 Degraded，调用方据此决定是否缓存。
package domain

import (
	"context"

	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

// ScoredProduct 外部打分结果中的一项
type ScoredProduct struct {
	ProductID uint    `json:"product_id"`
	Score     float64 `json:"score"`
}

// Scorer 外部推荐评分服务
type Scorer interface {
	// 按用户历史行为打分
	ScoreForUser(ctx context.Context, userID string, limit int) ([]ScoredProduct, error)
	// 按商品相似度打分
	ScoreForProduct(ctx context.Context, productID uint, limit int) ([]ScoredProduct, error)
}

// Result 推荐结果；Degraded 表示走了本地热门度回落而非外部评分
type Result struct {
	Products []*catalog.Product `json:"products"`
	Degraded bool               `json:"degraded"`
}
