package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const defaultFollowupMessage = "Is there anything else I can help you with today?"

// followupDecision 为跟进 LLM 输出的结构化决策。
type followupDecision struct {
	NeedsFollowup bool   `json:"needs_followup"`
	Message       string `json:"message"`
}

// Followup 在主回复之后决定是否追加跟进话术。
//
// 是否需要跟进由 LLM 判断；判断失败时用序列兜底：执行过动作
// 才跟进。跟进文案用空行拼接到最终回复后。
func (h *Handlers) Followup(ctx context.Context, state State) (State, error) {
	state.appendStep(StepFollowup)

	summary := state.FinalResponse
	if state.ActionTaken != "" {
		summary = fmt.Sprintf("action %s executed: %s", state.ActionTaken, state.ActionResponse)
	}

	decision := followupDecision{
		NeedsFollowup: state.ActionTaken != "",
		Message:       defaultFollowupMessage,
	}

	messages, err := followupTemplate().Format(ctx, map[string]any{
		"query":   state.Query,
		"summary": summary,
	})
	if err != nil {
		return state, fmt.Errorf("format followup template failed: %w", err)
	}

	raw, genErr := h.gen.GenerateMessages(ctx, messages)
	if genErr != nil {
		h.log.Warn("followup generate failed, using sequence fallback",
			zap.String("trace_id", state.TraceID),
			zap.Error(genErr))
	} else if payload := extractJSONPayload(raw); payload != "" {
		var d followupDecision
		if err := json.Unmarshal([]byte(payload), &d); err == nil {
			decision = d
		}
	} else if msg := strings.TrimSpace(raw); msg != "" && decision.NeedsFollowup {
		// 模型直接输出了文案而不是 JSON：是否跟进仍按序列兜底判断，
		// 纯咨询对话不因模型闲聊而多出一句跟进。
		decision.Message = msg
	}

	if !decision.NeedsFollowup {
		return state, nil
	}
	if strings.TrimSpace(decision.Message) == "" {
		decision.Message = defaultFollowupMessage
	}

	state.FollowupResponse = decision.Message
	if state.FinalResponse == "" {
		state.FinalResponse = decision.Message
	} else {
		state.FinalResponse = state.FinalResponse + "\n\n" + decision.Message
	}
	return state, nil
}
