package cli

import (
	"context"
	"fmt"

	"github.com/wwwzy/DeskAgent/internal/ablation"
	"github.com/wwwzy/DeskAgent/internal/agent"
	"github.com/wwwzy/DeskAgent/internal/llm"
	"github.com/wwwzy/DeskAgent/internal/storage"
	"github.com/wwwzy/DeskAgent/internal/ui"
)

// runtime 聚合各命令共享的运行时依赖。
type runtime struct {
	store    *storage.Storage
	handlers *agent.Handlers
}

// newRuntime 按配置初始化存储、LLM 客户端与处理步骤集合。
// 调用方负责 close。
func newRuntime(ctx context.Context) (*runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Seed(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed demo data: %w", err)
	}

	client, err := llm.NewClient(ctx, cfg.LLM, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	handlers, err := agent.NewHandlers(ctx, agent.HandlersConfig{
		Generator:     client,
		Store:         store,
		TopK:          cfg.Knowledge.TopK,
		HistoryWindow: cfg.HistoryWindow,
		Logger:        log,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init handlers: %w", err)
	}

	return &runtime{store: store, handlers: handlers}, nil
}

func (r *runtime) close() {
	if r != nil && r.store != nil {
		_ = r.store.Close()
	}
}

// newBackend 按变体构造对话后端：单步对照系统或指定图变体的 Runner。
func (r *runtime) newBackend(ctx context.Context, variant string) (ui.ChatBackend, error) {
	if variant == ablation.ConfigBaseline {
		return agent.NewBaseline(r.handlers, cfg.Knowledge.TopK, log), nil
	}
	graph, err := agent.BuildGraph(ctx, r.handlers, variant)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return agent.NewRunner(graph, r.store, log), nil
}
