package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyOrder 下单请求没有任何行项目
	ErrEmptyOrder = errors.New("no items in order")
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidTransition 非法的状态迁移
	ErrInvalidTransition = errors.New("invalid status transition")
)

// LineError 标记下单失败发生在哪一行，底层错误保持可被 errors.Is 匹配
type LineError struct {
	ProductID uint
	Err       error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("product %d: %v", e.ProductID, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
