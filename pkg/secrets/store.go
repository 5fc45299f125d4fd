// Copyright 2026 fanjia1024
// Secret management abstraction

package secrets

import (
	"context"
)

// Store 凭证存储接口。本系统只需要按键读写模型 API Key，
// 不提供删除和遍历能力。
type Store interface {
	// Get 获取凭证值，不存在时返回错误
	Get(ctx context.Context, key string) (string, error)

	// Set 设置凭证值
	Set(ctx context.Context, key string, value string) error
}

// Config Secret Store 配置
type Config struct {
	Provider string            `yaml:"provider"` // vault | env | memory
	Config   map[string]string `yaml:"config"`   // Provider-specific config
}

// NewStore 创建 Secret Store
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "memory":
		return NewMemoryStore(), nil
	case "vault":
		return NewVaultStore(VaultConfig{
			Address:    config.Config["address"],
			Token:      config.Config["token"],
			PathPrefix: config.Config["path_prefix"],
		})
	case "env":
		return NewEnvStore(), nil
	default:
		return NewEnvStore(), nil
	}
}

// ResolveModelKey 按约定解析模型凭证：优先 secret store，回退环境变量
// key 形如 "GEMINI_API_KEY"；store 可为 nil
func ResolveModelKey(ctx context.Context, store Store, key string) string {
	if store != nil {
		if v, err := store.Get(ctx, key); err == nil && v != "" {
			return v
		}
	}
	env := NewEnvStore()
	v, _ := env.Get(ctx, key)
	return v
}
