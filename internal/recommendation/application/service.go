// Package application 推荐网关的用例逻辑。
// 读路径：缓存 → 外部评分服务 → 本地热门度回落。
// 只有外部评分成功的结果才会写缓存；回落结果不缓存，
// 外部服务恢复后下一次请求就能拿到真实评分。
package application

import (
	"context"
	"fmt"
	"time"

	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/recommendation/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

const defaultLimit = 10

// Config 推荐服务配置
type Config struct {
	// 评分结果缓存时长
	TTL time.Duration
}

// Service 推荐应用服务
type Service struct {
	scorer   domain.Scorer
	products catalog.ProductRepository
	cache    cache.Store
	metrics  *metrics.Metrics
	ttl      time.Duration
}

// NewService 创建推荐应用服务；scorer 可为 nil（纯回落模式），metrics 可为 nil
func NewService(scorer domain.Scorer, products catalog.ProductRepository, store cache.Store, m *metrics.Metrics, cfg Config) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if store == nil {
		store = cache.NewNoop()
	}
	return &Service{scorer: scorer, products: products, cache: store, metrics: m, ttl: ttl}
}

func userKey(userID string) string { return "recommendations:user:" + userID }
func productKey(id uint) string    { return fmt.Sprintf("recommendations:product:%d", id) }

// ForUser 用户维度推荐
func (s *Service) ForUser(ctx context.Context, userID string, limit int) (*domain.Result, error) {
	if limit <= 0 || limit > 50 {
		limit = defaultLimit
	}
	s.countRequest()

	key := userKey(userID)
	if ids, ok := s.cachedIDs(ctx, key); ok {
		s.cacheHit()
		products, err := s.resolve(ctx, ids, limit)
		if err == nil {
			return &domain.Result{Products: products}, nil
		}
		logger.Warn(ctx, "cached recommendation resolution failed", "key", key, "error", err)
	} else {
		s.cacheMiss()
	}

	if s.scorer != nil {
		scored, err := s.scorer.ScoreForUser(ctx, userID, limit)
		if err == nil && len(scored) > 0 {
			ids := scoredIDs(scored)
			products, rerr := s.resolve(ctx, ids, limit)
			if rerr == nil && len(products) > 0 {
				cache.SetJSON(ctx, s.cache, key, ids, s.ttl)
				return &domain.Result{Products: products}, nil
			}
		}
		if err != nil {
			logger.Warn(ctx, "recommendation scorer unavailable, falling back", "user_id", userID, "error", err)
		}
	}

	return s.fallbackPopular(ctx, limit)
}

// ForProduct 商品维度推荐（相似商品）
func (s *Service) ForProduct(ctx context.Context, productID uint, limit int) (*domain.Result, error) {
	if limit <= 0 || limit > 50 {
		limit = defaultLimit
	}
	s.countRequest()

	// 先确认商品存在，不存在直接向上抛 ErrProductNotFound
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	key := productKey(productID)
	if ids, ok := s.cachedIDs(ctx, key); ok {
		s.cacheHit()
		products, rerr := s.resolve(ctx, ids, limit)
		if rerr == nil {
			return &domain.Result{Products: products}, nil
		}
		logger.Warn(ctx, "cached recommendation resolution failed", "key", key, "error", rerr)
	} else {
		s.cacheMiss()
	}

	if s.scorer != nil {
		scored, serr := s.scorer.ScoreForProduct(ctx, productID, limit)
		if serr == nil && len(scored) > 0 {
			ids := scoredIDs(scored)
			products, rerr := s.resolve(ctx, ids, limit)
			if rerr == nil && len(products) > 0 {
				cache.SetJSON(ctx, s.cache, key, ids, s.ttl)
				return &domain.Result{Products: products}, nil
			}
		}
		if serr != nil {
			logger.Warn(ctx, "recommendation scorer unavailable, falling back", "product_id", productID, "error", serr)
		}
	}

	return s.fallbackCategory(ctx, product.Category, productID, limit)
}

// FrequentlyBoughtTogether 凑单推荐：同类目购买量最高的商品（排除自身）
func (s *Service) FrequentlyBoughtTogether(ctx context.Context, productID uint, limit int) (*domain.Result, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.fallbackCategory(ctx, product.Category, productID, limit)
}

// cachedIDs 读出缓存中的商品 ID 序列
func (s *Service) cachedIDs(ctx context.Context, key string) ([]uint, bool) {
	var ids []uint
	if !cache.GetJSON(ctx, s.cache, key, &ids) || len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

// resolve 把评分的 ID 序列还原成商品记录，保持评分顺序，丢掉已删除的商品
func (s *Service) resolve(ctx context.Context, ids []uint, limit int) ([]*catalog.Product, error) {
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ordered := make([]*catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
			if len(ordered) >= limit {
				break
			}
		}
	}
	return ordered, nil
}

func (s *Service) fallbackPopular(ctx context.Context, limit int) (*domain.Result, error) {
	s.countFallback()
	products, err := s.products.ListPopular(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &domain.Result{Products: products, Degraded: true}, nil
}

func (s *Service) fallbackCategory(ctx context.Context, category string, excludeID uint, limit int) (*domain.Result, error) {
	s.countFallback()
	products, err := s.products.ListByCategory(ctx, category, excludeID, limit)
	if err != nil {
		return nil, err
	}
	return &domain.Result{Products: products, Degraded: true}, nil
}

func scoredIDs(scored []domain.ScoredProduct) []uint {
	ids := make([]uint, 0, len(scored))
	for _, sp := range scored {
		ids = append(ids, sp.ProductID)
	}
	return ids
}

func (s *Service) countRequest() {
	if s.metrics != nil {
		s.metrics.RecommendationRequestsTotal.Inc()
	}
}

func (s *Service) countFallback() {
	if s.metrics != nil {
		s.metrics.RecommendationFallbacksTotal.Inc()
	}
}

func (s *Service) cacheHit() {
	if s.metrics != nil {
		s.metrics.CacheHitsTotal.WithLabelValues("recommendation").Inc()
	}
}

func (s *Service) cacheMiss() {
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.WithLabelValues("recommendation").Inc()
	}
}
