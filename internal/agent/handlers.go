package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"go.uber.org/zap"
	"github.com/wwwzy/DeskAgent/internal/knowledge"
	"github.com/wwwzy/DeskAgent/internal/llm"
	"github.com/wwwzy/DeskAgent/internal/storage"
)

// Handlers 聚合各处理步骤共享的依赖。
//
// 步骤函数都是 func(ctx, State) (State, error) 形态，直接作为 Graph 的
// Lambda 节点注册。LLM 与检索器都是接口，测试中注入脚本化假实现。
type Handlers struct {
	gen       llm.Generator
	retriever knowledge.Retriever
	store     *storage.Storage
	toolsNode *compose.ToolsNode

	topK          int
	historyWindow int
	log           *zap.Logger
}

type HandlersConfig struct {
	Generator llm.Generator
	Retriever knowledge.Retriever
	Store     *storage.Storage
	// TopK 为知识检索条数；<=0 使用默认值。
	TopK int
	// HistoryWindow 为注入提示词的历史消息窗口；<=0 使用默认值。
	HistoryWindow int
	Logger        *zap.Logger
}

func NewHandlers(ctx context.Context, cfg HandlersConfig) (*Handlers, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Retriever == nil {
		cfg.Retriever = knowledge.NewKeywordRetriever()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	h := &Handlers{
		gen:           cfg.Generator,
		retriever:     cfg.Retriever,
		store:         cfg.Store,
		topK:          cfg.TopK,
		historyWindow: cfg.HistoryWindow,
		log:           cfg.Logger,
	}

	// 动作步骤依赖 ToolsNode 分发后端工具；没有存储时工具不可用，
	// 动作请求会被升级处理。
	if cfg.Store != nil {
		tn, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
			Tools: GetTools(cfg.Store),
		})
		if err != nil {
			return nil, fmt.Errorf("create tools node failed: %w", err)
		}
		h.toolsNode = tn
	}
	return h, nil
}
