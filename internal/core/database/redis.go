package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOpts struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis 创建客户端并试 ping 一次；ping 失败仍返回可用客户端（go-redis 会自动重连）
func NewRedis(ctx context.Context, o RedisOpts) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rdb, rdb.Ping(ctx).Err()
}
