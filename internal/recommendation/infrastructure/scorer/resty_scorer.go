// Package scorer 外部推荐评分服务的 HTTP 客户端实现。
package scorer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/wyfcoding/ecommerce/internal/recommendation/domain"
)

// RestyScorer 基于 resty 的评分客户端，超时受配置约束，
// 不在客户端层做重试，失败快速交给上层回落
type RestyScorer struct {
	client *resty.Client
}

// NewRestyScorer 创建评分客户端
func NewRestyScorer(baseURL string, timeout time.Duration) *RestyScorer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &RestyScorer{client: client}
}

type scoreResponse struct {
	Recommendations []domain.ScoredProduct `json:"recommendations"`
}

// ScoreForUser 拉取用户维度评分
func (s *RestyScorer) ScoreForUser(ctx context.Context, userID string, limit int) ([]domain.ScoredProduct, error) {
	var body scoreResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&body).
		Get("/recommendations/user/" + userID)
	if err != nil {
		return nil, fmt.Errorf("scorer request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("scorer returned status %d", resp.StatusCode())
	}
	return body.Recommendations, nil
}

// ScoreForProduct 拉取商品维度评分
func (s *RestyScorer) ScoreForProduct(ctx context.Context, productID uint, limit int) ([]domain.ScoredProduct, error) {
	var body scoreResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&body).
		Get(fmt.Sprintf("/recommendations/product/%d", productID))
	if err != nil {
		return nil, fmt.Errorf("scorer request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("scorer returned status %d", resp.StatusCode())
	}
	return body.Recommendations, nil
}
