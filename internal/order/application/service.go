// Package application 下单管道的用例逻辑。
// 用例流程：
// 1. 空单直接拒绝
// 2. 按输入顺序逐行做原子条件扣减（数据库侧判断 stock >= qty）
// 3. 扣减成功的行以当下价格做快照
// 4. 任一行失败：对前面已扣减的行做补偿回加，然后整单失败并带出失败行
// 5. 全部成功：落一条订单、逐行追加 purchase 行为事件（best-effort）、删购物车缓存
package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	interaction "github.com/wyfcoding/ecommerce/internal/interaction/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

// LineRequest 下单行请求
type LineRequest struct {
	ProductID uint
	Quantity  int
}

// Service 订单应用服务
type Service struct {
	orders   domain.OrderRepository
	products catalog.ProductRepository
	carts    *cartapp.Service
	recorder interaction.Recorder
	metrics  *metrics.Metrics
}

// NewService 创建订单应用服务；recorder 与 metrics 可为 nil
func NewService(orders domain.OrderRepository, products catalog.ProductRepository, carts *cartapp.Service, recorder interaction.Recorder, m *metrics.Metrics) *Service {
	return &Service{orders: orders, products: products, carts: carts, recorder: recorder, metrics: m}
}

// PlaceOrder 下单。
// lines 为空时回落到用户购物车当前内容；成功后删除购物车缓存条目，
// 后续读车得到空车。失败行通过 *domain.LineError 带出商品 ID，
// 底层错误可用 errors.Is 匹配 catalog.ErrProductNotFound / catalog.ErrInsufficientStock。
func (s *Service) PlaceOrder(ctx context.Context, userID string, lines []LineRequest, shippingAddress string) (*domain.Order, error) {
	defer logger.LogDuration(ctx, "Order placement completed", "user_id", userID)()

	if len(lines) == 0 && s.carts != nil {
		for _, line := range s.carts.Lines(ctx, userID) {
			lines = append(lines, LineRequest{ProductID: line.ProductID, Quantity: line.Quantity})
		}
	}
	if len(lines) == 0 {
		s.orderFailure("empty_order")
		return nil, domain.ErrEmptyOrder
	}

	// 逐行顺序处理，不做跨行并行，保证库存检查链路可审计。
	// decremented 记录已提交的扣减，供失败时补偿回滚。
	var items []domain.Item
	var decremented []LineRequest
	total := decimal.Zero

	for _, line := range lines {
		if line.Quantity <= 0 {
			s.compensate(ctx, decremented)
			s.orderFailure("invalid_quantity")
			return nil, &domain.LineError{ProductID: line.ProductID, Err: catalog.ErrInsufficientStock}
		}

		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			s.compensate(ctx, decremented)
			s.orderFailure("product_not_found")
			return nil, &domain.LineError{ProductID: line.ProductID, Err: err}
		}

		// 检查与扣减是同一条条件 UPDATE，并发竞争者只有库存足够的能成功
		if err := s.products.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.compensate(ctx, decremented)
			if s.metrics != nil {
				s.metrics.StockConflictsTotal.Inc()
			}
			s.orderFailure("insufficient_stock")
			return nil, &domain.LineError{ProductID: line.ProductID, Err: err}
		}
		decremented = append(decremented, line)

		// 价格快照取扣减时刻的读数，后续改价不影响本单
		items = append(items, domain.Item{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			Price:       product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))

		if s.recorder != nil {
			s.recorder.Record(ctx, userID, line.ProductID, interaction.TypePurchase, float64(line.Quantity))
		}
	}

	order := domain.NewOrder(uuid.New().String(), userID, items, total, shippingAddress)
	if err := s.orders.Save(ctx, order); err != nil {
		// 台账写失败同样回滚扣减，避免库存凭空蒸发
		s.compensate(ctx, decremented)
		s.orderFailure("ledger_write")
		return nil, err
	}

	if s.carts != nil {
		s.carts.Clear(ctx, userID)
	}
	if s.metrics != nil {
		s.metrics.OrdersTotal.Inc()
	}

	logger.Info(ctx, "Order placed",
		"order_id", order.OrderID,
		"user_id", userID,
		"lines", len(items),
		"total", total.String(),
	)
	return order, nil
}

// compensate 回滚已提交的库存扣减。
// 回加失败只能记日志告警（需要人工对账），不会再向调用方叠加错误。
func (s *Service) compensate(ctx context.Context, decremented []LineRequest) {
	for i := len(decremented) - 1; i >= 0; i-- {
		line := decremented[i]
		if err := s.products.AddStock(ctx, line.ProductID, line.Quantity); err != nil {
			logger.Error(ctx, "stock compensation failed, manual reconciliation required",
				"product_id", line.ProductID,
				"quantity", line.Quantity,
				"error", err,
			)
		}
	}
}

func (s *Service) orderFailure(reason string) {
	if s.metrics != nil {
		s.metrics.OrderFailuresTotal.WithLabelValues(reason).Inc()
	}
}

// OrderLineView 订单行展示视图：快照数据加上商品现状（可能已删除）
type OrderLineView struct {
	ProductID   uint             `json:"product_id"`
	ProductName string           `json:"product_name"`
	Quantity    int              `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	Product     *catalog.Product `json:"product,omitempty"`
}

// OrderView 订单展示视图
type OrderView struct {
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	Items           []OrderLineView `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          domain.Status   `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	CreatedAt       int64           `json:"created_at"`
}

// GetOrder 获取订单详情（校验归属），行项目补全商品现状用于展示
func (s *Service) GetOrder(ctx context.Context, orderID, userID string) (*OrderView, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		// 不泄露他人订单的存在性
		return nil, domain.ErrOrderNotFound
	}
	return s.toView(ctx, order), nil
}

// ListOrders 按用户分页列出订单
func (s *Service) ListOrders(ctx context.Context, userID string, limit, offset int) ([]*OrderView, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	orders, total, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*OrderView, len(orders))
	for i, order := range orders {
		views[i] = s.toView(ctx, order)
	}
	return views, total, nil
}

// toView 把订单行的商品 ID 还原成完整商品记录；
// 补全失败或商品已删除时只展示快照字段
func (s *Service) toView(ctx context.Context, order *domain.Order) *OrderView {
	ids := make([]uint, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}

	byID := make(map[uint]*catalog.Product, len(ids))
	if products, err := s.products.GetByIDs(ctx, ids); err == nil {
		for _, p := range products {
			byID[p.ID] = p
		}
	} else {
		logger.Warn(ctx, "order view hydration degraded to snapshots", "order_id", order.OrderID, "error", err)
	}

	view := &OrderView{
		OrderID:         order.OrderID,
		UserID:          order.UserID,
		Items:           make([]OrderLineView, len(order.Items)),
		TotalAmount:     order.TotalAmount,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt.Unix(),
	}
	for i, item := range order.Items {
		view.Items[i] = OrderLineView{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			Product:     byID[item.ProductID],
		}
	}
	return view
}

// UpdateStatus 履约流程推进订单状态，校验状态机迁移合法性
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next domain.Status) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, next)
	}
	return s.orders.UpdateStatus(ctx, orderID, next)
}
