// Package domain 包含订单台账的领域模型。
// 订单创建后不可变，只允许由履约流程推进状态；行上的价格是下单时刻的快照，
// 商品后续改价、下架都不影响已有订单。
package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status 订单状态
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions 状态机：pending → processing → shipped → delivered；
// 终态前任意状态可取消
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

// CanTransitionTo 判断状态迁移是否合法
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order 订单实体
type Order struct {
	gorm.Model
	// 订单唯一标识
	OrderID string `gorm:"column:order_id;type:varchar(36);uniqueIndex;not null" json:"order_id"`
	// 所属用户
	UserID string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	// 行项目
	Items []Item `gorm:"foreignKey:OrderRef" json:"items"`
	// 总金额 = Σ 快照单价 × 数量
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(20,8);not null" json:"total_amount"`
	// 订单状态
	Status Status `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 收货地址
	ShippingAddress string `gorm:"column:shipping_address;type:varchar(500)" json:"shipping_address"`
}

// TableName 指定表名
func (Order) TableName() string { return "orders" }

// Item 订单行项目
type Item struct {
	gorm.Model
	OrderRef  uint `gorm:"column:order_ref;index;not null" json:"-"`
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`
	// 商品名快照（商品删除后订单仍可展示）
	ProductName string `gorm:"column:product_name;type:varchar(255);not null" json:"product_name"`
	Quantity    int    `gorm:"column:quantity;not null" json:"quantity"`
	// 下单时刻的单价快照，后续改价不回写
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,8);not null" json:"price"`
}

// TableName 指定表名
func (Item) TableName() string { return "order_items" }

// NewOrder 创建订单，初始状态 PENDING
func NewOrder(orderID, userID string, items []Item, total decimal.Decimal, shippingAddress string) *Order {
	return &Order{
		OrderID:         orderID,
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		Status:          StatusPending,
		ShippingAddress: shippingAddress,
	}
}

// OrderRepository 订单仓储接口（append-mostly：插入 + 履约侧状态推进）
type OrderRepository interface {
	// 追加订单（含行项目）
	Save(ctx context.Context, order *Order) error
	// 按订单号获取，不存在返回 ErrOrderNotFound
	Get(ctx context.Context, orderID string) (*Order, error)
	// 按用户分页列出
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Order, int64, error)
	// 状态推进（履约流程使用，迁移合法性由调用方校验）
	UpdateStatus(ctx context.Context, orderID string, status Status) error
}
