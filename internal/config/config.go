package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// Neo4jConfig 定义了 Neo4j 图数据库的连接配置。
type Neo4jConfig struct {
	Uri      string `yaml:"uri"`      // Neo4j 数据库URI (例如: "bolt://localhost:7687")
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`  // 是否启用 Redis 查询缓存
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
	TTL      int    `yaml:"ttl"`      // 缓存条目的有效期 (秒)
}

// EmbeddingConfig 定义了 Embedding 模型的配置。
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // Embedding提供商 (例如: "ollama", "openai")
	Model    string `yaml:"model"`    // 模型名称
	APIKey   string `yaml:"apiKey"`   // API 密钥 (ollama 不需要)
	BaseURL  string `yaml:"baseURL"`  // 服务基础 URL (可选)
}

// LLMConfig 定义了答案生成模型的配置。
type LLMConfig struct {
	Provider string `yaml:"provider"` // LLM提供商 (例如: "ollama", "openai")
	Model    string `yaml:"model"`    // 模型名称
	APIKey   string `yaml:"apiKey"`   // API 密钥 (ollama 不需要)
	BaseURL  string `yaml:"baseURL"`  // 服务基础 URL (可选)
}

// RelationshipConfig 定义了相似关系构建的参数。
type RelationshipConfig struct {
	Threshold           float64 `yaml:"threshold"`           // 同模态相似度阈值
	CrossModalThreshold float64 `yaml:"crossModalThreshold"` // 跨模态相似度阈值
	TargetDim           int     `yaml:"targetDim"`           // 跨模态比较前统一到的向量维度
	TopK                int     `yaml:"topK"`                // Top-K 策略中每个 chunk 连接的邻居数
	TopicTopK           int     `yaml:"topicTopK"`           // 主题 partial 模式下每个 chunk 连接的邻居数
	Workers             int     `yaml:"workers"`             // 相似度计算的 worker 数量 (0 表示 GOMAXPROCS)
}

// RetrievalConfig 定义了混合检索的参数。
type RetrievalConfig struct {
	EmbeddingTopK int     `yaml:"embeddingTopK"` // 向量检索候选集大小
	TopicTopN     int     `yaml:"topicTopN"`     // 用于推断相关主题的头部候选数
	MaxPerTopic   int     `yaml:"maxPerTopic"`   // 每个主题扩展的最大 chunk 数
	TopicWeight   float64 `yaml:"topicWeight"`   // 主题信号在最终得分中的权重 [0,1]
	FinalTopK     int     `yaml:"finalTopK"`     // 最终返回的结果数 (0 表示与 embeddingTopK 相同)
}

// ServerConfig 定义了查询服务 HTTP 监听配置。
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址 (例如: ":8080")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App          AppInfo            `yaml:"app"`          // 应用程序信息
	Logger       LoggerConfig       `yaml:"logger"`       // 日志记录器配置
	Neo4j        Neo4jConfig        `yaml:"neo4j"`        // Neo4j 图数据库配置
	Redis        RedisConfig        `yaml:"redis"`        // Redis 缓存配置
	Embedding    EmbeddingConfig    `yaml:"embedding"`    // Embedding 配置部分
	LLM          LLMConfig          `yaml:"llm"`          // LLM 配置部分
	Relationship RelationshipConfig `yaml:"relationship"` // 关系构建配置
	Retrieval    RetrievalConfig    `yaml:"retrieval"`    // 混合检索配置
	Server       ServerConfig       `yaml:"server"`       // HTTP 服务配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，并做启动期校验。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取、解析或校验失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	// 先填充默认值，再将 YAML 内容解析到同一结构体上。文件中出现的键
	// （包括显式写成 0 的值）覆盖默认值，缺失的键保留默认值。
	cfg := defaultConfig()
	if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	// finalTopK 为 0 约定为"与 embeddingTopK 相同"，在解析后补齐。
	if cfg.Retrieval.FinalTopK == 0 {
		cfg.Retrieval.FinalTopK = cfg.Retrieval.EmbeddingTopK
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig 返回带默认值的配置，默认值与原始流水线一致。
func defaultConfig() *AppConfig {
	return &AppConfig{
		Relationship: RelationshipConfig{
			Threshold:           0.75,
			CrossModalThreshold: 0.30,
			TargetDim:           768,
			TopK:                5,
			TopicTopK:           5,
		},
		Retrieval: RetrievalConfig{
			EmbeddingTopK: 5,
			TopicTopN:     3,
			MaxPerTopic:   5,
			TopicWeight:   0.3,
		},
		Redis:  RedisConfig{TTL: 300},
		Server: ServerConfig{Address: ":8080"},
	}
}

// Validate 在启动期校验配置，配置类错误必须在这里失败，而不是在批处理中途。
func (c *AppConfig) Validate() error {
	if c.Neo4j.Uri == "" {
		return fmt.Errorf("neo4j.uri 不能为空")
	}
	if c.Embedding.Provider == "" || c.Embedding.Model == "" {
		return fmt.Errorf("embedding.provider 和 embedding.model 不能为空")
	}
	if c.LLM.Provider == "" || c.LLM.Model == "" {
		return fmt.Errorf("llm.provider 和 llm.model 不能为空")
	}
	if c.Relationship.Threshold < -1 || c.Relationship.Threshold > 1 {
		return fmt.Errorf("relationship.threshold 必须在 [-1,1] 范围内, 当前为 %v", c.Relationship.Threshold)
	}
	if c.Relationship.CrossModalThreshold < -1 || c.Relationship.CrossModalThreshold > 1 {
		return fmt.Errorf("relationship.crossModalThreshold 必须在 [-1,1] 范围内, 当前为 %v", c.Relationship.CrossModalThreshold)
	}
	if c.Relationship.TargetDim <= 0 {
		return fmt.Errorf("relationship.targetDim 必须大于 0, 当前为 %d", c.Relationship.TargetDim)
	}
	if c.Relationship.TopK <= 0 {
		return fmt.Errorf("relationship.topK 必须大于 0, 当前为 %d", c.Relationship.TopK)
	}
	if c.Relationship.TopicTopK <= 0 {
		return fmt.Errorf("relationship.topicTopK 必须大于 0, 当前为 %d", c.Relationship.TopicTopK)
	}
	if c.Relationship.Workers < 0 {
		return fmt.Errorf("relationship.workers 不能为负数, 当前为 %d", c.Relationship.Workers)
	}
	if c.Retrieval.TopicWeight < 0 || c.Retrieval.TopicWeight > 1 {
		return fmt.Errorf("retrieval.topicWeight 必须在 [0,1] 范围内, 当前为 %v", c.Retrieval.TopicWeight)
	}
	if c.Retrieval.EmbeddingTopK <= 0 {
		return fmt.Errorf("retrieval.embeddingTopK 必须大于 0, 当前为 %d", c.Retrieval.EmbeddingTopK)
	}
	if c.Retrieval.TopicTopN <= 0 || c.Retrieval.TopicTopN > c.Retrieval.EmbeddingTopK {
		return fmt.Errorf("retrieval.topicTopN 必须在 (0, embeddingTopK] 范围内, 当前为 %d", c.Retrieval.TopicTopN)
	}
	if c.Retrieval.MaxPerTopic <= 0 {
		return fmt.Errorf("retrieval.maxPerTopic 必须大于 0, 当前为 %d", c.Retrieval.MaxPerTopic)
	}
	return nil
}
