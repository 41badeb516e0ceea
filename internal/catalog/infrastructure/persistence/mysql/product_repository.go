// Package mysql 提供商品仓储接口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

type productRepository struct{ db *gorm.DB }

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		logger.Error(ctx, "product_repository.save failed", "name", product.Name, "error", err)
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	result := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"category":    product.Category,
			"stock":       product.Stock,
			"featured":    product.Featured,
		})
	if result.Error != nil {
		logger.Error(ctx, "product_repository.update failed", "product_id", product.ID, "error", result.Error)
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Product{}, id)
	if result.Error != nil {
		logger.Error(ctx, "product_repository.delete failed", "product_id", id, "error", result.Error)
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		logger.Error(ctx, "product_repository.get_by_id failed", "product_id", id, "error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uint) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []*domain.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		logger.Error(ctx, "product_repository.get_by_ids failed", "count", len(ids), "error", err)
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

func (r *productRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, int64, error) {
	var products []*domain.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", filter.MaxPrice)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if err := q.Order(parseSort(filter.Sort)).Offset(filter.Offset).Limit(filter.Limit).Find(&products).Error; err != nil {
		logger.Error(ctx, "product_repository.list failed", "category", filter.Category, "error", err)
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (r *productRepository) Search(ctx context.Context, term string, limit int) ([]*domain.Product, error) {
	var products []*domain.Product
	pattern := "%" + term + "%"
	err := r.db.WithContext(ctx).
		Where("name LIKE ? OR description LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		logger.Error(ctx, "product_repository.search failed", "term", term, "error", err)
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

func (r *productRepository) ListPopular(ctx context.Context, limit int) ([]*domain.Product, error) {
	var products []*domain.Product
	err := r.db.WithContext(ctx).
		Order("purchases desc, rating_average desc").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		logger.Error(ctx, "product_repository.list_popular failed", "error", err)
		return nil, fmt.Errorf("failed to list popular products: %w", err)
	}
	return products, nil
}

func (r *productRepository) ListByCategory(ctx context.Context, category string, excludeID uint, limit int) ([]*domain.Product, error) {
	var products []*domain.Product
	q := r.db.WithContext(ctx).Where("category = ?", category)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Order("purchases desc").Limit(limit).Find(&products).Error
	if err != nil {
		logger.Error(ctx, "product_repository.list_by_category failed", "category", category, "error", err)
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}
	return products, nil
}

// DecrementStock 单条 UPDATE 完成条件判断与扣减，stock >= qty 在数据库侧求值，
// 并发下单竞争时只有库存足够的请求能改到行。
func (r *productRepository) DecrementStock(ctx context.Context, id uint, qty int) error {
	result := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]any{
			"stock":     gorm.Expr("stock - ?", qty),
			"purchases": gorm.Expr("purchases + ?", qty),
		})
	if result.Error != nil {
		logger.Error(ctx, "product_repository.decrement_stock failed", "product_id", id, "error", result.Error)
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// 没改到行：要么商品不存在，要么库存不足
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *productRepository) AddStock(ctx context.Context, id uint, qty int) error {
	result := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":     gorm.Expr("stock + ?", qty),
			"purchases": gorm.Expr("purchases - ?", qty),
		})
	if result.Error != nil {
		logger.Error(ctx, "product_repository.add_stock failed", "product_id", id, "error", result.Error)
		return fmt.Errorf("failed to add stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Update("views", gorm.Expr("views + 1")).Error
	if err != nil {
		logger.Error(ctx, "product_repository.increment_views failed", "product_id", id, "error", err)
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

func (r *productRepository) AddRating(ctx context.Context, id uint, value float64) error {
	result := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating_average": gorm.Expr("(rating_average * rating_count + ?) / (rating_count + 1)", value),
			"rating_count":   gorm.Expr("rating_count + 1"),
		})
	if result.Error != nil {
		logger.Error(ctx, "product_repository.add_rating failed", "product_id", id, "error", result.Error)
		return fmt.Errorf("failed to add rating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// parseSort 把 "-price" 这类排序参数转换成安全的 ORDER BY 子句
func parseSort(sort string) string {
	field := strings.TrimPrefix(sort, "-")
	switch field {
	case "price", "purchases", "views", "created_at":
	default:
		field = "created_at"
		sort = "-created_at"
	}
	if strings.HasPrefix(sort, "-") {
		return field + " desc"
	}
	return field + " asc"
}
