package cache

import (
	"context"
	"time"
)

// Store 缓存存储接口，网页检索结果等短期数据的读写入口
type Store interface {
	// Set 设置缓存，expiration<=0 表示不过期
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Get 获取缓存并反序列化到 dest，未命中返回 errors.ErrNotFound
	Get(ctx context.Context, key string, dest interface{}) error
	// Delete 删除缓存，键不存在时静默成功
	Delete(ctx context.Context, key string) error
	// Close 关闭缓存连接
	Close() error
}
