package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"github.com/wwwzy/DeskAgent/internal/knowledge"
)

// BaselineStepName 为基线在步骤序列中的固定标记。
const BaselineStepName = "single-agent"

var baselineActionRe = regexp.MustCompile(`(?m)^ACTION:\s*(\w+)\(([^)]*)\)\s*$`)

const baselineApology = "I apologize, but I'm having trouble processing your request. Let me connect you with a human agent."

// Baseline 为单步对照系统：一次 LLM 调用完成分诊、解答与动作，
// 不走流程图。动作以 "ACTION: name(k=v, ...)" 文本协议内联在回复里，
// 由代码解析并执行，执行结果替换掉协议行。
type Baseline struct {
	handlers *Handlers
	topK     int
	log      *zap.Logger
}

func NewBaseline(h *Handlers, topK int, logger *zap.Logger) *Baseline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Baseline{handlers: h, topK: topK, log: logger}
}

// Run 处理一条客户提问。失败时退化为升级话术而不是报错，
// 与流程图系统的对外契约保持一致。
func (b *Baseline) Run(ctx context.Context, query string, history []*schema.Message) (*RunResult, error) {
	traceID := uuid.NewString()
	started := time.Now()

	kbContext, err := knowledge.FormattedContext(ctx, b.handlers.retriever, query, b.topK)
	if err != nil {
		kbContext = "No relevant information found in knowledge base."
	}

	messages, err := baselineTemplate().Format(ctx, map[string]any{
		"query":    query,
		"history":  history,
		"context":  kbContext,
		"policies": knowledge.CompanyPolicies,
	})
	if err != nil {
		return nil, fmt.Errorf("format baseline template failed: %w", err)
	}

	raw, err := b.handlers.gen.GenerateMessages(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("baseline generate failed: %w", err)
	}

	response := strings.TrimSpace(raw)
	status := StatusResolved
	escalated := false

	// 执行内联的动作协议行。
	if m := baselineActionRe.FindStringSubmatch(response); m != nil {
		action, params := m[1], parseBaselineParams(m[2])
		result, dispatchErr := b.handlers.dispatch(ctx, traceID, action, params)
		var replacement string
		switch {
		case dispatchErr != nil:
			b.log.Warn("baseline action failed",
				zap.String("trace_id", traceID),
				zap.String("action", action),
				zap.Error(dispatchErr))
			replacement = baselineApology
			status = StatusEscalated
			escalated = true
		case result.Success:
			replacement = result.Message
		default:
			replacement = result.Message
			status = StatusPartial
		}
		// 回复里常有金额（$1299.99），必须用字面替换避免被当成分组引用。
		response = strings.TrimSpace(baselineActionRe.ReplaceAllLiteralString(response, replacement))
	}

	if IndicatesInsufficiency(response) {
		status = StatusEscalated
		escalated = true
	}

	return &RunResult{
		TraceID:       traceID,
		Response:      response,
		AgentSequence: []string{BaselineStepName},
		Sentiment:     SentimentLabel(query),
		Status:        status,
		Escalated:     escalated,
		// 单步系统没有分诊置信度，取中性值。
		Confidence: 0.5,
		Duration:   time.Since(started),
	}, nil
}

// parseBaselineParams 解析 "k=v, k2=v2" 形式的参数串，值两侧的引号会被剥除。
func parseBaselineParams(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `'"`)
		if key != "" && val != "" {
			out[key] = val
		}
	}
	return out
}
