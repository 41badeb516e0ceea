// Package domain 包含商品目录的领域模型；products 表是库存的唯一事实来源
package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品类目固定枚举
const (
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryBooks       = "books"
	CategoryHome        = "home"
	CategorySports      = "sports"
	CategoryToys        = "toys"
	CategoryFood        = "food"
	CategoryBeauty      = "beauty"
	CategoryAutomotive  = "automotive"
	CategoryOther       = "other"
)

var categories = map[string]struct{}{
	CategoryElectronics: {},
	CategoryClothing:    {},
	CategoryBooks:       {},
	CategoryHome:        {},
	CategorySports:      {},
	CategoryToys:        {},
	CategoryFood:        {},
	CategoryBeauty:      {},
	CategoryAutomotive:  {},
	CategoryOther:       {},
}

// IsValidCategory 判断类目是否属于固定枚举
func IsValidCategory(category string) bool {
	_, ok := categories[category]
	return ok
}

// Product 商品实体
// 不变式：stock >= 0 恒成立，只能由下单成功时的条件更新扣减
type Product struct {
	gorm.Model
	Name        string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description string          `gorm:"column:description;type:text" json:"description"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(20,8);not null" json:"price"`
	Category    string          `gorm:"column:category;type:varchar(50);index;not null" json:"category"`
	Stock       int             `gorm:"column:stock;not null;default:0" json:"stock"`
	// 浏览计数
	Views int64 `gorm:"column:views;not null;default:0" json:"views"`
	// 购买计数
	Purchases int64 `gorm:"column:purchases;not null;default:0" json:"purchases"`
	// 评分聚合
	RatingAverage float64 `gorm:"column:rating_average;type:decimal(3,2);not null;default:0" json:"rating_average"`
	RatingCount   int64   `gorm:"column:rating_count;not null;default:0" json:"rating_count"`
	Featured      bool    `gorm:"column:featured;not null;default:false" json:"featured"`
}

// TableName 指定表名
func (Product) TableName() string { return "products" }

// ListFilter 商品列表查询条件
type ListFilter struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	// 排序字段：created_at, price, purchases, views；前缀 - 表示倒序
	Sort   string
	Offset int
	Limit  int
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 创建商品
	Save(ctx context.Context, product *Product) error
	// 更新商品字段（管理端编辑）
	Update(ctx context.Context, product *Product) error
	// 删除商品
	Delete(ctx context.Context, id uint) error
	// 按 ID 获取商品，不存在返回 ErrProductNotFound
	GetByID(ctx context.Context, id uint) (*Product, error)
	// 批量按 ID 获取商品（用于把推荐/购物车中的 ID 还原成完整记录）
	GetByIDs(ctx context.Context, ids []uint) ([]*Product, error)
	// 条件分页查询
	List(ctx context.Context, filter ListFilter) ([]*Product, int64, error)
	// 关键词检索（名称/描述）
	Search(ctx context.Context, term string, limit int) ([]*Product, error)
	// 全局热销榜：按购买量与评分倒序
	ListPopular(ctx context.Context, limit int) ([]*Product, error)
	// 同类目商品，排除指定 ID
	ListByCategory(ctx context.Context, category string, excludeID uint, limit int) ([]*Product, error)
	// DecrementStock 原子条件扣减：仅当 stock >= qty 时扣减库存并累加购买计数。
	// 条件不满足返回 ErrInsufficientStock；商品不存在返回 ErrProductNotFound。
	// 这是下单路径的唯一扣减入口，绝不允许读-改-写两步实现。
	DecrementStock(ctx context.Context, id uint, qty int) error
	// AddStock 补偿回加库存（多行订单后续行失败时回滚前面的扣减）
	AddStock(ctx context.Context, id uint, qty int) error
	// 浏览计数自增
	IncrementViews(ctx context.Context, id uint) error
	// 评分聚合更新（均值与计数单语句推进）
	AddRating(ctx context.Context, id uint, value float64) error
}
