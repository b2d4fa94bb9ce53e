package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/wwwzy/DeskAgent/internal/config"
)

// newChatModel 按提供商构造底层 ChatModel。候选链中的每个模型各持有一个实例。
func newChatModel(ctx context.Context, cfg config.LLMConfig, modelID string) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case "ark":
		return newArkChatModel(ctx, cfg, modelID)
	case "openai":
		return newOpenAIChatModel(cfg, modelID), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

func newArkChatModel(ctx context.Context, cfg config.LLMConfig, modelID string) (*ark.ChatModel, error) {
	arkCfg := &ark.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  modelID,
	}
	if cfg.BaseURL != "" {
		arkCfg.BaseURL = cfg.BaseURL
	}
	// ark 协议没有 top_k，其余生成参数随配置透传。
	if cfg.Temperature > 0 {
		temp := float32(cfg.Temperature)
		arkCfg.Temperature = &temp
	}
	if cfg.TopP > 0 {
		topP := float32(cfg.TopP)
		arkCfg.TopP = &topP
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		arkCfg.MaxTokens = &maxTokens
	}
	return ark.NewChatModel(ctx, arkCfg)
}
