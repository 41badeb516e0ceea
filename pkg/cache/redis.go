package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// Config Redis 配置
type Config struct {
	Host        string
	Port        int
	Password    string
	DB          int
	MaxPoolSize int
	// 单次操作超时，超时按未命中处理
	OpTimeout time.Duration
}

// Redis 基于 go-redis 的 Store 实现。
// 所有操作带超时；失败只记日志并退化为未命中，不向上返回错误。
type Redis struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedis 创建 Redis 缓存实例
func NewRedis(cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.MaxPoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 200 * time.Millisecond
	}

	logger.Info(context.Background(), "Redis connected successfully", "addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))

	return &Redis{client: client, opTimeout: opTimeout}, nil
}

// Get 读取缓存值，不存在/出错/超时均视为未命中
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logger.Warn(ctx, "Redis Get degraded to miss", "key", key, "error", err)
		return "", false
	}
	return val, true
}

// Set 覆盖写缓存并重置 TTL，失败静默丢弃
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warn(ctx, "Redis Set dropped", "key", key, "error", err)
	}
}

// Delete 删除缓存键，失败静默丢弃
func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn(ctx, "Redis Delete dropped", "keys", keys, "error", err)
	}
}

// Close 关闭 Redis 连接
func (r *Redis) Close() error {
	return r.client.Close()
}
