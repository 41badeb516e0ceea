// Package application 商品目录的用例逻辑：旁路缓存读、管理端写、浏览与评分计数
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	interaction "github.com/wyfcoding/ecommerce/internal/interaction/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

// Config 目录服务的缓存 TTL
type Config struct {
	ProductTTL time.Duration
	ListTTL    time.Duration
}

// Service 目录应用服务
type Service struct {
	repo     domain.ProductRepository
	cache    cache.Store
	recorder interaction.Recorder
	metrics  *metrics.Metrics
	cfg      Config
}

// NewService 创建目录应用服务；recorder 与 metrics 可为 nil
func NewService(repo domain.ProductRepository, store cache.Store, recorder interaction.Recorder, m *metrics.Metrics, cfg Config) *Service {
	if cfg.ProductTTL <= 0 {
		cfg.ProductTTL = 10 * time.Minute
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = 5 * time.Minute
	}
	return &Service{repo: repo, cache: store, recorder: recorder, metrics: m, cfg: cfg}
}

// CreateProductRequest 创建/编辑商品请求
type CreateProductRequest struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int
	Featured    bool
}

// ListResult 商品列表查询结果（缓存整体存取）
type ListResult struct {
	Products []*domain.Product `json:"products"`
	Total    int64             `json:"total"`
}

// CreateProduct 创建商品
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	if !domain.IsValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCategory, req.Category)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must be non-negative")
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock must be non-negative")
	}

	p := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Featured:    req.Featured,
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Product created", "product_id", p.ID, "name", p.Name, "category", p.Category)
	return p, nil
}

// GetProduct 获取商品详情，旁路缓存（product:<id>）。
// 缓存命中时直接返回，不推进浏览计数；未命中路径计数并记录 view 行为。
func (s *Service) GetProduct(ctx context.Context, id uint, userID string) (*domain.Product, error) {
	key := productKey(id)

	var cached domain.Product
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		s.cacheHit("product")
		return &cached, nil
	}
	s.cacheMiss("product")

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementViews(ctx, id); err != nil {
		logger.Warn(ctx, "view count update dropped", "product_id", id, "error", err)
	}

	if userID != "" && s.recorder != nil {
		s.recorder.Record(ctx, userID, id, interaction.TypeView, 1)
	}

	cache.SetJSON(ctx, s.cache, key, p, s.cfg.ProductTTL)
	return p, nil
}

// ListProducts 条件分页查询，旁路缓存（products:<查询指纹>）
func (s *Service) ListProducts(ctx context.Context, filter domain.ListFilter) (*ListResult, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	key := listKey(filter)

	var cached ListResult
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		s.cacheHit("products")
		return &cached, nil
	}
	s.cacheMiss("products")

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Products: products, Total: total}
	cache.SetJSON(ctx, s.cache, key, result, s.cfg.ListTTL)
	return result, nil
}

// SearchProducts 关键词检索（不缓存）
func (s *Service) SearchProducts(ctx context.Context, term string, limit int) ([]*domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Search(ctx, term, limit)
}

// UpdateProduct 管理端编辑商品，写穿后失效详情缓存
func (s *Service) UpdateProduct(ctx context.Context, id uint, req CreateProductRequest) (*domain.Product, error) {
	if !domain.IsValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCategory, req.Category)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must be non-negative")
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock must be non-negative")
	}

	p := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Featured:    req.Featured,
	}
	p.ID = id

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, productKey(id))
	logger.Info(ctx, "Product updated", "product_id", id)
	return s.repo.GetByID(ctx, id)
}

// DeleteProduct 删除商品并失效详情缓存。
// 已有订单持有价格快照，不受商品删除影响。
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(ctx, productKey(id))
	logger.Info(ctx, "Product deleted", "product_id", id)
	return nil
}

// RateProduct 用户评分：推进评分聚合并记录 rating 行为
func (s *Service) RateProduct(ctx context.Context, userID string, id uint, value float64) error {
	if value < 0 || value > 5 {
		return fmt.Errorf("rating must be between 0 and 5")
	}
	if err := s.repo.AddRating(ctx, id, value); err != nil {
		return err
	}

	s.cache.Delete(ctx, productKey(id))
	if s.recorder != nil {
		s.recorder.Record(ctx, userID, id, interaction.TypeRating, value)
	}
	return nil
}

func (s *Service) cacheHit(namespace string) {
	if s.metrics != nil {
		s.metrics.CacheHitsTotal.WithLabelValues(namespace).Inc()
	}
}

func (s *Service) cacheMiss(namespace string) {
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.WithLabelValues(namespace).Inc()
	}
}

func productKey(id uint) string { return fmt.Sprintf("product:%d", id) }

// listKey 把查询条件编码成指纹，条件不同的查询互不串扰
func listKey(filter domain.ListFilter) string {
	minPrice, maxPrice := "", ""
	if filter.MinPrice != nil {
		minPrice = filter.MinPrice.String()
	}
	if filter.MaxPrice != nil {
		maxPrice = filter.MaxPrice.String()
	}
	return fmt.Sprintf("products:%s:%s:%s:%s:%d:%d",
		filter.Category, minPrice, maxPrice, filter.Sort, filter.Offset, filter.Limit)
}
