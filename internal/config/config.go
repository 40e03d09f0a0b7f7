// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
// 所有键都可以通过带 DOCQA_ 前缀的环境变量覆盖，例如
// DOCQA_QDRANT_URL、DOCQA_EMBEDDING_API_KEY。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Qdrant    QdrantConfig    `mapstructure:"qdrant"`
	Chunk     ChunkConfig     `mapstructure:"chunk"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Frontend  FrontendConfig  `mapstructure:"frontend"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// QdrantConfig 存储 Qdrant 向量数据库相关的配置。
type QdrantConfig struct {
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
	// Dimension 必须与 Embedding 模型输出维度一致，否则 upsert 会被存储端拒绝。
	Dimension int `mapstructure:"dimension"`
}

// ChunkConfig 存储文本分块与检索相关的配置。
type ChunkConfig struct {
	Size int `mapstructure:"size"`
	TopK int `mapstructure:"top_k"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
// Provider 取值 "huggingface"（远程推理 API）或 "ollama"（本地模型）。
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
}

// LLMConfig 存储补全服务相关的配置。
type LLMConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// FrontendConfig 存储前端静态资源目录的配置。
type FrontendConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load 从指定路径读取 YAML 配置文件并解析为 Config 对象返回。
// 配置对象由调用方显式传递给各组件，不做包级全局存储。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("DOCQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return &cfg, nil
}

// setDefaults 设置与线上部署一致的默认值，未在配置文件或环境变量
// 中给出的键回落到这里。
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("qdrant.url", "http://localhost:6333")
	// api_key 默认留空，viper 的环境变量覆盖只对已注册的键生效
	v.SetDefault("qdrant.api_key", "")
	v.SetDefault("qdrant.collection", "documents")
	// MiniLM-L6-v2 的输出维度
	v.SetDefault("qdrant.dimension", 384)
	v.SetDefault("chunk.size", 500)
	v.SetDefault("chunk.top_k", 3)
	v.SetDefault("embedding.provider", "huggingface")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "https://api-inference.huggingface.co/pipeline/feature-extraction")
	v.SetDefault("embedding.model", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gemma3:270m")
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("frontend.dir", "./frontend")
}
