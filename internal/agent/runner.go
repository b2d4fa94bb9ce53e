package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"github.com/wwwzy/DeskAgent/internal/storage"
)

// RunResult 为一次咨询处理的汇总结果。
type RunResult struct {
	TraceID       string
	Response      string
	AgentSequence []string
	Intent        string
	Sentiment     string
	Status        string
	Escalated     bool
	Confidence    float64
	Duration      time.Duration
}

// Runner 驱动处理流程图执行单次咨询，并把结果落库。
type Runner struct {
	graph compose.Runnable[State, State]
	store *storage.Storage
	log   *zap.Logger
}

func NewRunner(graph compose.Runnable[State, State], store *storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{graph: graph, store: store, log: logger}
}

// Run 处理一条客户提问。history 为之前轮次的对话消息，可为 nil。
//
// 图执行失败时记录一条 failed 记录并返回错误；成功时落库完整链路。
// 落库失败只告警，不影响给客户的回复。
func (r *Runner) Run(ctx context.Context, query string, history []*schema.Message) (*RunResult, error) {
	traceID := uuid.NewString()
	state := NewState(traceID, query, history)

	out, err := r.graph.Invoke(ctx, state)
	duration := time.Since(state.StartedAt)

	if err != nil {
		r.persist(ctx, &storage.ConversationRecord{
			TraceID:    traceID,
			Query:      query,
			Status:     StatusFailed,
			DurationMS: duration.Milliseconds(),
		})
		return nil, fmt.Errorf("run trace %s: %w", traceID, err)
	}

	seq, _ := json.Marshal(out.AgentSequence)
	r.persist(ctx, &storage.ConversationRecord{
		TraceID:      traceID,
		Query:        query,
		Response:     out.FinalResponse,
		SequenceJSON: string(seq),
		Intent:       out.Intent,
		Sentiment:    out.Sentiment,
		Status:       out.ResolutionStatus,
		Escalated:    out.NeedsEscalation,
		DurationMS:   duration.Milliseconds(),
	})

	r.log.Info("query processed",
		zap.String("trace_id", traceID),
		zap.Strings("sequence", out.AgentSequence),
		zap.String("status", out.ResolutionStatus),
		zap.Duration("duration", duration))

	return &RunResult{
		TraceID:       traceID,
		Response:      out.FinalResponse,
		AgentSequence: out.AgentSequence,
		Intent:        out.Intent,
		Sentiment:     out.Sentiment,
		Status:        out.ResolutionStatus,
		Escalated:     out.NeedsEscalation,
		Confidence:    out.Confidence,
		Duration:      duration,
	}, nil
}

func (r *Runner) persist(ctx context.Context, rec *storage.ConversationRecord) {
	if r.store == nil {
		return
	}
	if err := r.store.InsertConversationRecord(ctx, rec); err != nil {
		r.log.Warn("persist conversation record failed",
			zap.String("trace_id", rec.TraceID),
			zap.Error(err))
	}
}
