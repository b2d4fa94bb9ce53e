package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/wwwzy/DeskAgent/internal/storage"
)

// LLMConfig 描述调用层的完整配置：提供商、候选模型与重试/退避参数。
type LLMConfig struct {
	// Provider 为 LLM 提供商，支持 ark / openai。
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`

	// PrimaryModel/SecondaryModel 为首选与次选模型；FallbackModels 为兜底的廉价模型列表。
	PrimaryModel   string   `mapstructure:"primary_model"`
	SecondaryModel string   `mapstructure:"secondary_model"`
	FallbackModels []string `mapstructure:"fallback_models"`

	// 生成参数。
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	TopK        int     `mapstructure:"top_k"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	// 重试策略：限流错误按 RetryDelay * 1.5^attempt 退避；
	// 其他错误按 LinearDelay * (attempt+1) 线性退避；
	// 每次成功调用后固定等待 DelayBetweenCalls。
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	LinearDelay       time.Duration `mapstructure:"linear_delay"`
	DelayBetweenCalls time.Duration `mapstructure:"delay_between_calls"`
}

type KnowledgeConfig struct {
	// TopK 为检索返回的文档条数上限。
	TopK int `mapstructure:"top_k"`
}

type EvalConfig struct {
	// Dataset 为消融实验使用的 JSON 测试集路径；为空时使用内置样例。
	Dataset string `mapstructure:"dataset"`
	// SampleSize 限制每个配置评估的查询数量。
	SampleSize int `mapstructure:"sample_size"`
	// Concurrency 为并发执行查询的 worker 数。
	Concurrency int `mapstructure:"concurrency"`
}

type Config struct {
	Storage   storage.Config  `mapstructure:"storage"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Eval      EvalConfig      `mapstructure:"eval"`
	LogLevel  string          `mapstructure:"log_level"`

	// HistoryWindow 为注入提示词的对话历史窗口（消息条数）。
	HistoryWindow int `mapstructure:"history_window"`
	// RetentionDays 为会话记录的保留天数，history prune 使用。
	RetentionDays int `mapstructure:"retention_days"`
}

func Load(cfgFile string) (*Config, error) {
	// 先加载 .env（不存在则忽略），使 API Key 可以放在项目目录下。
	_ = godotenv.Load()

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.deskagent")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DESKAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// 配置文件未找到，使用默认值
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "ark", "openai":
	default:
		return fmt.Errorf("llm.provider must be one of ark/openai, got %q", c.LLM.Provider)
	}
	// 只校验所选提供商的凭证，缺失则直接失败。
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for provider %q (or set DESKAGENT_LLM_API_KEY / ARK_API_KEY / OPENAI_API_KEY)", c.LLM.Provider)
	}
	if c.LLM.PrimaryModel == "" {
		return fmt.Errorf("llm.primary_model is required (or set DESKAGENT_LLM_PRIMARY_MODEL)")
	}
	if c.LLM.MaxRetries <= 0 {
		return fmt.Errorf("llm.max_retries must be positive, got %d", c.LLM.MaxRetries)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("history_window", 10)
	v.SetDefault("retention_days", 30)

	v.SetDefault("storage.path", "deskagent.db")
	v.SetDefault("storage.busy_timeout", 5*time.Second)
	v.SetDefault("storage.enable_wal", true)

	v.SetDefault("llm.provider", "ark")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.primary_model", "")
	v.SetDefault("llm.secondary_model", "")
	v.SetDefault("llm.fallback_models", []string{})
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.top_p", 0.9)
	v.SetDefault("llm.top_k", 40)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", 20*time.Second)
	v.SetDefault("llm.linear_delay", 10*time.Second)
	v.SetDefault("llm.delay_between_calls", 2*time.Second)

	v.SetDefault("knowledge.top_k", 5)

	v.SetDefault("eval.dataset", "")
	v.SetDefault("eval.sample_size", 30)
	v.SetDefault("eval.concurrency", 2)

	// 兼容提供商原生的环境变量名。
	v.BindEnv("llm.api_key", "DESKAGENT_LLM_API_KEY", "ARK_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.primary_model", "DESKAGENT_LLM_PRIMARY_MODEL", "ARK_MODEL_ID")
	v.BindEnv("llm.base_url", "DESKAGENT_LLM_BASE_URL", "ARK_BASE_URL", "OPENAI_BASE_URL")
}

func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		HistoryWindow: 10,
		RetentionDays: 30,
		Storage: storage.Config{
			Path:        "deskagent.db",
			EnableWAL:   true,
			BusyTimeout: 5 * time.Second,
		},
		LLM: LLMConfig{
			Provider:          "ark",
			Temperature:       0.3,
			TopP:              0.9,
			TopK:              40,
			MaxTokens:         1024,
			MaxRetries:        3,
			RetryDelay:        20 * time.Second,
			LinearDelay:       10 * time.Second,
			DelayBetweenCalls: 2 * time.Second,
		},
		Knowledge: KnowledgeConfig{TopK: 5},
		Eval:      EvalConfig{SampleSize: 30, Concurrency: 2},
	}
}
