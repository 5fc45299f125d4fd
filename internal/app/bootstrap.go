// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"chat-platform/internal/agent"
	"chat-platform/internal/memory"
	"chat-platform/internal/model/embedding"
	"chat-platform/internal/model/llm"
	"chat-platform/internal/retrieval"
	"chat-platform/internal/sandbox"
	"chat-platform/internal/storage/cache"
	"chat-platform/pkg/config"
	"chat-platform/pkg/log"
	"chat-platform/pkg/secrets"
)

// Bootstrap 进程级共享组件，由 cmd 层构造一次，所有会话复用
type Bootstrap struct {
	Config     *config.Config
	Logger     *log.Logger
	Embedder   embedding.Embedder
	LongTerm   *memory.LongTerm
	Indexed    *retrieval.IndexedSource
	Web        *retrieval.WebSource
	Policy     *agent.SearchPolicy
	Sandbox    *sandbox.Runner
	Audit      agent.AuditStore
	Classifier *agent.Classifier

	llmKey     string
	llmBaseURL string
	provider   string
	responders config.RespondersConfig
}

// NewBootstrap 按配置装配共享组件，缺少必需凭证时直接失败
func NewBootstrap(cfg *config.Config) (*Bootstrap, error) {
	logger, err := log.NewLogger(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	secretStore, err := newSecretStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化凭证存储失败: %w", err)
	}

	ctx := context.Background()
	provider := cfg.Model.Defaults.LLM
	providerCfg := cfg.Model.LLM.Providers[provider]
	llmKey := providerCfg.APIKey
	if llmKey == "" {
		llmKey = secrets.ResolveModelKey(ctx, secretStore, strings.ToUpper(provider)+"_API_KEY")
	}
	if llmKey == "" {
		return nil, fmt.Errorf("LLM provider %q 无可用凭证", provider)
	}

	embedder, err := newEmbedder(ctx, cfg, secretStore)
	if err != nil {
		return nil, fmt.Errorf("初始化向量模型失败: %w", err)
	}

	summarizer, err := newLLMClient(cfg, provider, llmKey, providerCfg.BaseURL, cfg.Model.Responders.Knowledge)
	if err != nil {
		return nil, fmt.Errorf("初始化 LLM 客户端失败: %w", err)
	}

	longTerm, err := memory.NewLongTerm(summarizer, embedder,
		cfg.LongTerm.IndexPath, cfg.LongTerm.MetaPath, cfg.LongTerm.TopK, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化长期记忆失败: %w", err)
	}

	webCache, err := cache.NewCache(cfg.WebSearch.Cache)
	if err != nil {
		return nil, fmt.Errorf("初始化检索缓存失败: %w", err)
	}
	web := retrieval.NewWebSource(cfg.WebSearch.Endpoint, cfg.WebSearch.MaxChars, webCache, logger)
	indexed := retrieval.NewIndexedSource(embedder, cfg.Retrieval.Dir, logger)
	if !indexed.Available() {
		logger.Info("本地内容索引未构建，索引检索将走降级路径", "dir", cfg.Retrieval.Dir)
	}

	var audit agent.AuditStore
	if cfg.Audit.Type == "postgres" {
		audit, err = agent.NewAuditStorePg(ctx, cfg.Audit.DSN)
		if err != nil {
			return nil, fmt.Errorf("初始化审计存储失败: %w", err)
		}
	} else {
		audit = agent.NewAuditStoreMem()
	}

	classifierClient, err := newLLMClient(cfg, provider, llmKey, providerCfg.BaseURL, cfg.Model.Responders.Classifier)
	if err != nil {
		return nil, fmt.Errorf("初始化分类器客户端失败: %w", err)
	}

	sandboxTimeout, _ := time.ParseDuration(cfg.Sandbox.Timeout)

	return &Bootstrap{
		Config:     cfg,
		Logger:     logger,
		Embedder:   embedder,
		LongTerm:   longTerm,
		Indexed:    indexed,
		Web:        web,
		Policy:     agent.NewSearchPolicy(cfg.WebSearch.Enabled),
		Sandbox:    sandbox.NewRunner(cfg.Sandbox.Bin, sandboxTimeout),
		Audit:      audit,
		Classifier: agent.NewClassifier(classifierClient, logger),
		llmKey:     llmKey,
		llmBaseURL: providerCfg.BaseURL,
		provider:   provider,
		responders: cfg.Model.Responders,
	}, nil
}

// NewRouterForSession 为单个会话组装编排器：三个响应器各带自己的短期记忆文件，
// 长期记忆、检索来源与审计存储在进程内共享。
func (b *Bootstrap) NewRouterForSession(sessionID string) (*agent.Router, error) {
	newResponder := func(flavor agent.Flavor, modelName string) (*agent.Responder, error) {
		client, err := newLLMClient(b.Config, b.provider, b.llmKey, b.llmBaseURL, modelName)
		if err != nil {
			return nil, err
		}
		shortPath := filepath.Join(b.Config.Memory.Dir, sessionID, string(flavor)+".json")
		return agent.NewResponder(agent.ResponderOptions{
			Flavor:         flavor,
			Client:         client,
			ShortTerm:      memory.NewShortTerm(shortPath, b.Config.Memory.Capacity, b.Logger),
			LongTerm:       b.LongTerm,
			Indexed:        b.Indexed,
			Web:            b.Web,
			Policy:         b.Policy,
			Sandbox:        b.Sandbox,
			RetrieveK:      b.Config.Retrieval.K,
			FlushThreshold: b.Config.Memory.FlushThreshold,
			Logger:         b.Logger,
		}), nil
	}

	knowledge, err := newResponder(agent.FlavorKnowledge, b.responders.Knowledge)
	if err != nil {
		return nil, err
	}
	explain, err := newResponder(agent.FlavorExplain, b.responders.Explain)
	if err != nil {
		return nil, err
	}
	code, err := newResponder(agent.FlavorCode, b.responders.Code)
	if err != nil {
		return nil, err
	}

	return agent.NewRouter(b.Classifier, knowledge, explain, code, b.Audit, sessionID, b.Logger), nil
}

// Close 释放进程级资源
func (b *Bootstrap) Close() {
	if b.Audit != nil {
		b.Audit.Close()
	}
}

func newLLMClient(cfg *config.Config, provider, apiKey, baseURL, modelName string) (llm.Client, error) {
	if modelName == "" {
		if pc, ok := cfg.Model.LLM.Providers[provider]; ok {
			for _, info := range pc.Models {
				modelName = info.Name
				break
			}
		}
	}
	return llm.NewClient(provider, modelName, apiKey, baseURL)
}

func newSecretStore(cfg *config.Config) (secrets.Store, error) {
	return secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Config: map[string]string{
			"address":     cfg.Secrets.Address,
			"token":       cfg.Secrets.Token,
			"path_prefix": cfg.Secrets.PathPrefix,
		},
	})
}

// NewEmbedderFromConfig 按配置创建向量模型，cmd/indexer 复用这条装配路径
func NewEmbedderFromConfig(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	store, err := newSecretStore(cfg)
	if err != nil {
		return nil, err
	}
	return newEmbedder(ctx, cfg, store)
}

func newEmbedder(ctx context.Context, cfg *config.Config, store secrets.Store) (embedding.Embedder, error) {
	provider := cfg.Model.Defaults.Embedding
	if provider == "" {
		provider = "hash"
	}
	pc := cfg.Model.Embedding.Providers[provider]

	var modelName string
	dimension := 0
	for _, info := range pc.Models {
		modelName = info.Name
		dimension = info.Dimension
		break
	}

	apiKey := pc.APIKey
	if apiKey == "" && provider != "hash" {
		apiKey = secrets.ResolveModelKey(ctx, store, strings.ToUpper(provider)+"_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("embedding provider %q 无可用凭证", provider)
		}
	}
	return embedding.NewEmbedder(provider, modelName, apiKey, pc.BaseURL, dimension)
}
