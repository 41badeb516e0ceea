// Package cache 提供旁路缓存（cache-aside）存储抽象。
// 缓存只是性能优化层：后端不可用或超时一律退化为未命中/空操作，
// 任何错误都不会传播给调用方，系统在缓存完全关闭时行为不变。
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store 缓存存储接口
// Get 返回值与是否命中；Set 覆盖写并重置 TTL；Delete 幂等删除。
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// GetJSON 读取并反序列化缓存值，未命中或反序列化失败返回 false
func GetJSON(ctx context.Context, s Store, key string, dest any) bool {
	val, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		// 脏数据按未命中处理并清掉，避免反复命中坏条目
		s.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON 序列化后写入缓存，序列化失败静默丢弃
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.Set(ctx, key, string(data), ttl)
}

// Noop 空实现，所有读取均未命中；用于验证无缓存时的正确性
type Noop struct{}

// NewNoop 创建空缓存
func NewNoop() *Noop { return &Noop{} }

func (*Noop) Get(ctx context.Context, key string) (string, bool)          { return "", false }
func (*Noop) Set(ctx context.Context, key, value string, _ time.Duration) {}
func (*Noop) Delete(ctx context.Context, keys ...string)                  {}
