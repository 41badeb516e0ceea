// Package application 行为事件记录的用例逻辑
package application

import (
	"context"
	"time"

	"github.com/wyfcoding/ecommerce/internal/interaction/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

// recordTimeout 单条行为事件落库/发布的时间上限
const recordTimeout = 5 * time.Second

// AsyncRecorder 实现 domain.Recorder。
// 旁路写入与主流程彻底隔离：异步派发，落库与消息发布的失败只记日志，
// 绝不把错误带回调用方的事务通道。
type AsyncRecorder struct {
	repo      domain.InteractionRepository
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
}

// NewAsyncRecorder 创建行为记录器；publisher 与 metrics 可为 nil
func NewAsyncRecorder(repo domain.InteractionRepository, publisher domain.EventPublisher, m *metrics.Metrics) *AsyncRecorder {
	return &AsyncRecorder{repo: repo, publisher: publisher, metrics: m}
}

// Record 异步追加一条行为事件
func (r *AsyncRecorder) Record(ctx context.Context, userID string, productID uint, typ domain.Type, value float64) {
	interaction := &domain.Interaction{
		UserID:    userID,
		ProductID: productID,
		Type:      typ,
		Value:     value,
	}

	// 不继承请求 context：请求结束不应取消旁路写入
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := r.repo.Append(bgCtx, interaction); err != nil {
			logger.Warn(bgCtx, "interaction append dropped",
				"user_id", userID,
				"product_id", productID,
				"type", typ,
				"error", err,
			)
			return
		}

		if r.metrics != nil {
			r.metrics.InteractionsTotal.WithLabelValues(string(typ)).Inc()
		}

		if r.publisher != nil {
			if err := r.publisher.PublishInteraction(bgCtx, interaction); err != nil {
				logger.Warn(bgCtx, "interaction publish dropped",
					"user_id", userID,
					"product_id", productID,
					"type", typ,
					"error", err,
				)
			}
		}
	}()
}
