package ui

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/DeskAgent/internal/agent"
)

// ChatBackend 是对话界面依赖的最小后端接口。
// *agent.Runner 与 *agent.Baseline 都满足它，便于切换系统形态。
type ChatBackend interface {
	Run(ctx context.Context, query string, history []*schema.Message) (*agent.RunResult, error)
}

type ChatUI interface {
	Run(ctx context.Context, backend ChatBackend, opts ChatOptions) error
}

type ChatOptions struct {
	// HistoryWindow 为传给后端的历史消息条数上限；<=0 表示不截断。
	HistoryWindow int
	// ShowTrace 控制是否在回复后打印步骤序列与意图。
	ShowTrace bool
}

// TrimHistory 截断历史消息到指定窗口。
func TrimHistory(history []*schema.Message, window int) []*schema.Message {
	if window <= 0 || len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}
