package redis

import (
	"context"
	"fmt"

	"GraphRAG/internal/config"

	"github.com/go-redis/redis/v8"
)

// NewClient 根据配置创建一个 Redis 客户端，并通过 Ping 验证连接。
// 客户端由调用方持有和关闭，不使用进程级单例。
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用 Ping 检查连接是否成功。
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis: %w", err)
	}

	return rdb, nil
}
