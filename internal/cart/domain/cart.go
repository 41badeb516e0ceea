// Package domain 包含购物车的领域模型。
// 购物车只存在于缓存层（cart:<user>，固定 TTL），没有持久化表；
// 缓存条目消失等价于空车，不是错误。
package domain

// Line 购物车行，按 productId 去重
type Line struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Cart 单个用户的购物车整体快照。
// 所有修改都是整体读-改-写，同一用户并发修改为 last-write-wins。
type Cart struct {
	UserID string `json:"user_id"`
	Items  []Line `json:"items"`
}

// NewCart 创建空购物车
func NewCart(userID string) *Cart {
	return &Cart{UserID: userID}
}

// AddItem 合并同商品行，数量累加
func (c *Cart) AddItem(productID uint, qty int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, Line{ProductID: productID, Quantity: qty})
}

// SetQuantity 覆盖指定行的数量；行不存在返回 false（调用方按 no-op 处理）
func (c *Cart) SetQuantity(productID uint, qty int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return true
		}
	}
	return false
}

// RemoveItem 幂等删除指定行
func (c *Cart) RemoveItem(productID uint) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// IsEmpty 是否为空车
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }
