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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Model      ModelConfig      `mapstructure:"model"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	LongTerm   LongTermConfig   `mapstructure:"longterm"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	WebSearch  WebSearchConfig  `mapstructure:"websearch"`
	Sandbox    SandboxConfig    `mapstructure:"sandbox"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// SecretsConfig 凭证存储配置，api_key 留空时按 "<PROVIDER>_API_KEY" 去存储里取
type SecretsConfig struct {
	Provider   string `mapstructure:"provider"` // env | vault | memory
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port    int    `mapstructure:"port"`
	Host    string `mapstructure:"host"`
	Timeout string `mapstructure:"timeout"`
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM        LLMConfig        `mapstructure:"llm"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
	Responders RespondersConfig `mapstructure:"responders"`
}

// LLMConfig LLM 模型配置
type LLMConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// EmbeddingConfig Embedding 模型配置
type EmbeddingConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig 模型提供商配置
type ProviderConfig struct {
	APIKey  string               `mapstructure:"api_key"`
	BaseURL string               `mapstructure:"base_url"`
	Models  map[string]ModelInfo `mapstructure:"models"`
}

// ModelInfo 模型信息
type ModelInfo struct {
	Name        string  `mapstructure:"name"`
	Temperature float64 `mapstructure:"temperature"`
	Dimension   int     `mapstructure:"dimension"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DefaultsConfig 默认模型配置
type DefaultsConfig struct {
	LLM       string `mapstructure:"llm"`       // 默认 LLM provider
	Embedding string `mapstructure:"embedding"` // 默认 Embedding provider
}

// RespondersConfig 每个响应器使用的模型名（空则用 provider 默认）
type RespondersConfig struct {
	Knowledge  string `mapstructure:"knowledge"`
	Explain    string `mapstructure:"explain"`
	Code       string `mapstructure:"code"`
	Classifier string `mapstructure:"classifier"`
}

// MemoryConfig 短期记忆配置
type MemoryConfig struct {
	Capacity       int    `mapstructure:"capacity"`        // 缓冲区容量 N，<=0 默认 5
	FlushThreshold int    `mapstructure:"flush_threshold"` // 达到该条数后转入长期记忆，<=0 默认 8
	Dir            string `mapstructure:"dir"`             // 每会话持久化文件所在目录
}

// LongTermConfig 长期记忆配置
type LongTermConfig struct {
	IndexPath string `mapstructure:"index_path"` // 向量索引文件
	MetaPath  string `mapstructure:"meta_path"`  // 记录元数据文件
	TopK      int    `mapstructure:"top_k"`      // 检索返回条数，<=0 默认 3
}

// RetrievalConfig 本地内容索引检索配置
type RetrievalConfig struct {
	Dir string `mapstructure:"dir"` // 内容索引目录（indexer 构建产物）
	K   int    `mapstructure:"k"`   // 检索条数，<=0 默认 4
}

// WebSearchConfig 联网搜索配置
type WebSearchConfig struct {
	Enabled  bool        `mapstructure:"enabled"`   // 启动时的开关默认值，可经 API 运行时修改
	Endpoint string      `mapstructure:"endpoint"`  // 搜索服务地址，空则用默认 DuckDuckGo
	MaxChars int         `mapstructure:"max_chars"` // 网页文本截断上限，<=0 默认 8000
	Cache    CacheConfig `mapstructure:"cache"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Type     string `mapstructure:"type"` // memory | redis | none
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
	TTL      string `mapstructure:"ttl"` // 如 "10m"，空则默认 10m
}

// SandboxConfig 代码执行沙箱配置
type SandboxConfig struct {
	Bin     string `mapstructure:"bin"`     // 沙箱子进程二进制路径，空则在本进程目录查找 sandbox
	Timeout string `mapstructure:"timeout"` // 单次执行超时，如 "10s"，空则默认 10s
}

// AuditConfig 编排层审计日志存储配置
type AuditConfig struct {
	Type string `mapstructure:"type"` // memory | postgres
	DSN  string `mapstructure:"dsn"`  // Postgres 连接串，type=postgres 时必填
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadAPIConfig 按约定路径加载 API 配置（CONFIG_PATH 优先）
func LoadAPIConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "configs/config.yaml"
	}
	return LoadConfig(path)
}

// Validate 校验配置；缺少必需的模型凭证属于致命的构造期错误
func (c *Config) Validate() error {
	provider := c.Model.Defaults.LLM
	if provider == "" {
		return fmt.Errorf("缺少默认 LLM provider（model.defaults.llm）")
	}
	pc, ok := c.Model.LLM.Providers[provider]
	if !ok {
		return fmt.Errorf("默认 LLM provider %q 未在 model.llm.providers 中配置", provider)
	}
	if pc.APIKey == "" && c.Secrets.Provider == "" {
		return fmt.Errorf("LLM provider %q 缺少 api_key", provider)
	}
	if emb := c.Model.Defaults.Embedding; emb != "" {
		ec, ok := c.Model.Embedding.Providers[emb]
		if !ok {
			return fmt.Errorf("默认 Embedding provider %q 未在 model.embedding.providers 中配置", emb)
		}
		if ec.APIKey == "" && emb != "hash" && c.Secrets.Provider == "" {
			return fmt.Errorf("Embedding provider %q 缺少 api_key", emb)
		}
	}
	if c.Audit.Type == "postgres" && c.Audit.DSN == "" {
		return fmt.Errorf("audit.type=postgres 时必须配置 audit.dsn")
	}
	return nil
}

// replaceEnvVars 替换配置中 ${VAR} 形式的环境变量（API Key 等）
func replaceEnvVars(config *Config) {
	expand := func(providers map[string]ProviderConfig) {
		for name, pc := range providers {
			if strings.HasPrefix(pc.APIKey, "$") {
				envVar := strings.TrimPrefix(strings.TrimSuffix(pc.APIKey, "}"), "${")
				if val := os.Getenv(envVar); val != "" {
					pc.APIKey = val
				} else {
					pc.APIKey = ""
				}
				providers[name] = pc
			}
		}
	}
	expand(config.Model.LLM.Providers)
	expand(config.Model.Embedding.Providers)
}

// applyDefaults 填充缺省值，保持 Validate 和下游构造的前置条件
func applyDefaults(config *Config) {
	if config.API.Port <= 0 {
		config.API.Port = 8080
	}
	if config.Memory.Capacity <= 0 {
		config.Memory.Capacity = 5
	}
	if config.Memory.FlushThreshold <= 0 {
		config.Memory.FlushThreshold = 8
	}
	if config.Memory.Dir == "" {
		config.Memory.Dir = "data/sessions"
	}
	if config.LongTerm.IndexPath == "" {
		config.LongTerm.IndexPath = "data/processed/memory_index.json"
	}
	if config.LongTerm.MetaPath == "" {
		config.LongTerm.MetaPath = "data/processed/memory_meta.json"
	}
	if config.LongTerm.TopK <= 0 {
		config.LongTerm.TopK = 3
	}
	if config.Retrieval.Dir == "" {
		config.Retrieval.Dir = "data/processed/content_index"
	}
	if config.Retrieval.K <= 0 {
		config.Retrieval.K = 4
	}
	if config.WebSearch.MaxChars <= 0 {
		config.WebSearch.MaxChars = 8000
	}
	if config.Audit.Type == "" {
		config.Audit.Type = "memory"
	}
}
