package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Triage 分析客户提问并决定路由。
//
// 升级关键字命中时走快速通道，不调用 LLM；否则请求 LLM 的结构化
// 决策并解析。解析永不失败，但 LLM 本身耗尽时错误向上传播，由
// 调用方按失败计数。模型倾向过度升级，升级路由会被二次校验改派。
func (h *Handlers) Triage(ctx context.Context, state State) (State, error) {
	state.appendStep(StepTriage)
	if state.Entities == nil {
		state.Entities = map[string]string{}
	}

	var decision Decision
	if WantsHuman(state.Query) {
		decision = Decision{
			RouteTo:    StepEscalation,
			Intent:     "complaint",
			Urgency:    "high",
			Sentiment:  SentimentLabel(state.Query),
			Reasoning:  "customer explicitly requested human assistance",
			Confidence: 0.95,
		}
	} else {
		messages, err := triageTemplate().Format(ctx, map[string]any{
			"query":   state.Query,
			"history": state.recentHistory(h.historyWindow),
		})
		if err != nil {
			return state, fmt.Errorf("format triage template failed: %w", err)
		}

		raw, err := h.gen.GenerateMessages(ctx, messages)
		if err != nil {
			return state, fmt.Errorf("triage generate failed: %w", err)
		}
		decision = ParseDecision(raw, state.Query)

		// 升级改派：模型提出升级但客户并未点名要人工/法律时，
		// 有动作意图或订单号改走 action，否则改走 knowledge，
		// 避免过度谨慎的模型饿死另外两条分支。
		if decision.RouteTo == StepEscalation && !WantsHuman(state.Query) {
			if HasActionKeyword(state.Query) || ExtractOrderID(state.Query) != "" {
				decision.RouteTo = StepAction
				decision.Reasoning = "overridden: action request, does not require escalation"
			} else {
				decision.RouteTo = StepKnowledge
				decision.Reasoning = "overridden: informational query, does not require escalation"
			}
		}
	}

	state.Intent = decision.Intent
	state.Urgency = decision.Urgency
	state.Sentiment = decision.Sentiment
	state.Confidence = decision.Confidence
	state.Reasoning = decision.Reasoning
	state.RouteTo = decision.RouteTo
	state.NextStep = decision.RouteTo

	for k, v := range decision.EntityStrings() {
		if _, exists := state.Entities[k]; !exists {
			state.Entities[k] = v
		}
	}
	// 正则兜底：模型漏掉订单号时从原文补齐。
	if _, ok := state.Entities["order_id"]; !ok {
		if id := ExtractOrderID(state.Query); id != "" {
			state.Entities["order_id"] = id
		}
	}

	if decision.RouteTo == StepEscalation {
		state.escalate(decision.Reasoning)
	}

	h.log.Debug("triage decision",
		zap.String("trace_id", state.TraceID),
		zap.String("route", state.RouteTo),
		zap.String("intent", state.Intent),
		zap.String("sentiment", state.Sentiment),
		zap.Float64("confidence", state.Confidence))

	return state, nil
}
