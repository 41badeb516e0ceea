// Package application 购物车的用例逻辑。
// 购物车只写缓存，商品与库存的校验在修改时对目录存储做 advisory 检查，
// 最终的强校验在下单管道完成。
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	interaction "github.com/wyfcoding/ecommerce/internal/interaction/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// Service 购物车应用服务
type Service struct {
	products catalog.ProductRepository
	cache    cache.Store
	recorder interaction.Recorder
	cartTTL  time.Duration
}

// NewService 创建购物车应用服务；recorder 可为 nil
func NewService(products catalog.ProductRepository, store cache.Store, recorder interaction.Recorder, cartTTL time.Duration) *Service {
	if cartTTL <= 0 {
		cartTTL = 24 * time.Hour
	}
	return &Service{products: products, cache: store, recorder: recorder, cartTTL: cartTTL}
}

// LineView 购物车行的展示视图：实时价格小计，不是下单快照
type LineView struct {
	Product  *catalog.Product `json:"product"`
	Quantity int              `json:"quantity"`
	Subtotal decimal.Decimal  `json:"subtotal"`
}

// View 购物车展示视图
type View struct {
	Items []LineView      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// AddItem 加购：商品必须存在，数量不得超过当前库存（advisory 检查）。
// 成功后整体重写缓存条目并刷新 TTL，追加 cart 行为事件（best-effort）。
func (s *Service) AddItem(ctx context.Context, userID string, productID uint, qty int) (*domain.Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < qty {
		return nil, fmt.Errorf("%w: product %d", catalog.ErrInsufficientStock, productID)
	}

	cart := s.load(ctx, userID)
	cart.AddItem(productID, qty)
	s.store(ctx, cart)

	if s.recorder != nil {
		s.recorder.Record(ctx, userID, productID, interaction.TypeCart, 1)
	}

	logger.Debug(ctx, "Cart item added", "user_id", userID, "product_id", productID, "quantity", qty)
	return cart, nil
}

// GetCart 读取购物车并按目录现状补全：已下架商品静默剔除，
// 小计与总计用当前价格计算（未成交，价格随行就市）。
func (s *Service) GetCart(ctx context.Context, userID string) (*View, error) {
	cart := s.load(ctx, userID)

	view := &View{Items: []LineView{}, Total: decimal.Zero}
	if cart.IsEmpty() {
		return view, nil
	}

	ids := make([]uint, 0, len(cart.Items))
	for _, line := range cart.Items {
		ids = append(ids, line.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, line := range cart.Items {
		product, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Items = append(view.Items, LineView{
			Product:  product,
			Quantity: line.Quantity,
			Subtotal: subtotal,
		})
		view.Total = view.Total.Add(subtotal)
	}

	return view, nil
}

// UpdateQuantity 覆盖行数量；行不存在为 no-op。
// 不做库存校验，最终校验留给下单管道。
func (s *Service) UpdateQuantity(ctx context.Context, userID string, productID uint, qty int) (*domain.Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	cart := s.load(ctx, userID)
	if cart.SetQuantity(productID, qty) {
		s.store(ctx, cart)
	}
	return cart, nil
}

// RemoveItem 幂等删除：删除不存在的行也返回成功
func (s *Service) RemoveItem(ctx context.Context, userID string, productID uint) (*domain.Cart, error) {
	cart := s.load(ctx, userID)
	cart.RemoveItem(productID)
	s.store(ctx, cart)
	return cart, nil
}

// Clear 清空购物车（删除缓存键，而非写空值）
func (s *Service) Clear(ctx context.Context, userID string) {
	s.cache.Delete(ctx, Key(userID))
}

// Lines 返回购物车当前行，供下单管道直接消费
func (s *Service) Lines(ctx context.Context, userID string) []domain.Line {
	return s.load(ctx, userID).Items
}

func (s *Service) load(ctx context.Context, userID string) *domain.Cart {
	var cart domain.Cart
	if cache.GetJSON(ctx, s.cache, Key(userID), &cart) {
		cart.UserID = userID
		return &cart
	}
	return domain.NewCart(userID)
}

func (s *Service) store(ctx context.Context, cart *domain.Cart) {
	cache.SetJSON(ctx, s.cache, Key(cart.UserID), cart, s.cartTTL)
}

// Key 购物车缓存键
func Key(userID string) string { return "cart:" + userID }
