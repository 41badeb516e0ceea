package domain

import "errors"

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock 库存不足（条件扣减被拒）
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidCategory 类目不在固定枚举内
	ErrInvalidCategory = errors.New("invalid category")
)
