package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Escalation 移交人工：给客户固定的安抚话术，同时生成给人工坐席的
// 内部交接摘要。摘要生成失败不影响移交，退化为确定性拼装。
func (h *Handlers) Escalation(ctx context.Context, state State) (State, error) {
	state.appendStep(StepEscalation)

	if !state.NeedsEscalation {
		state.escalate("routed to escalation")
	} else {
		state.setResolution(StatusEscalated)
	}
	state.FinalResponse = escalationCustomerMessage

	messages, err := escalationTemplate().Format(ctx, map[string]any{
		"query":     state.Query,
		"reason":    state.EscalationReason,
		"intent":    state.Intent,
		"sentiment": state.Sentiment,
	})
	if err != nil {
		return state, fmt.Errorf("format escalation template failed: %w", err)
	}

	summary, genErr := h.gen.GenerateMessages(ctx, messages)
	if genErr != nil {
		h.log.Warn("escalation summary generate failed, using deterministic summary",
			zap.String("trace_id", state.TraceID),
			zap.Error(genErr))
		summary = fmt.Sprintf("Escalated case. Query: %q. Intent: %s. Sentiment: %s. Reason: %s.",
			state.Query, state.Intent, state.Sentiment, state.EscalationReason)
	}
	state.EscalationSummary = strings.TrimSpace(summary)

	return state, nil
}
