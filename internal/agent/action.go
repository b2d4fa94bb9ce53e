package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"github.com/wwwzy/DeskAgent/internal/storage"
)

// actionDecision 为动作 LLM 输出的结构化决策。
// Params 用 any 接收，模型偶尔会把订单号输出成数字。
type actionDecision struct {
	Action   string         `json:"action"`
	Params   map[string]any `json:"params"`
	Response string         `json:"response"`
}

// paramStrings 把参数值统一转成字符串表。
func (d actionDecision) paramStrings() map[string]string {
	out := map[string]string{}
	for k, v := range d.Params {
		switch val := v.(type) {
		case string:
			if val != "" {
				out[k] = val
			}
		case nil:
		default:
			out[k] = strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
		}
	}
	return out
}

const actionClarify = "I'd be happy to help with that. Could you share your order number (or customer ID for account requests) so I can proceed?"

// Action 执行客户请求的后端动作。
//
// 流程：LLM 选择动作 -> 校验动作名与必填参数（缺参先从已知实体补齐，
// 仍缺则反问客户而不是猜测）-> 通过 ToolsNode 单次分发 -> 把业务结果
// 转成客户回复。LLM 不可用时升级处理，不让请求悄悄失败。
func (h *Handlers) Action(ctx context.Context, state State) (State, error) {
	state.appendStep(StepAction)

	entities, _ := json.Marshal(state.Entities)
	messages, err := actionTemplate().Format(ctx, map[string]any{
		"query":    state.Query,
		"history":  state.recentHistory(h.historyWindow),
		"entities": string(entities),
	})
	if err != nil {
		return state, fmt.Errorf("format action template failed: %w", err)
	}

	raw, err := h.gen.GenerateMessages(ctx, messages)
	if err != nil {
		h.log.Warn("action generate failed",
			zap.String("trace_id", state.TraceID),
			zap.Error(err))
		state.escalate("action step unavailable")
		state.NextStep = StepEscalation
		return state, nil
	}

	decision := parseActionDecision(raw)

	// 模型要求澄清，或给出未知动作名：反问客户，等待补充信息。
	if decision.Action == "ask_customer" {
		return h.actionPending(state, decision.Response), nil
	}
	required, known := actionRequiredParams[decision.Action]
	if !known {
		h.log.Warn("unknown action from model",
			zap.String("trace_id", state.TraceID),
			zap.String("action", decision.Action))
		return h.actionPending(state, actionClarify), nil
	}

	// 缺参先用分诊提取的实体补齐，仍缺则反问。
	params := decision.paramStrings()
	for _, p := range required {
		if params[p] != "" {
			continue
		}
		if v := state.Entities[p]; v != "" {
			params[p] = v
			continue
		}
		return h.actionPending(state, actionClarify), nil
	}

	result, err := h.dispatch(ctx, state.TraceID, decision.Action, params)
	if err != nil {
		h.log.Warn("action dispatch failed",
			zap.String("trace_id", state.TraceID),
			zap.String("action", decision.Action),
			zap.Error(err))
		state.escalate("action execution failed")
		state.NextStep = StepEscalation
		return state, nil
	}

	state.ActionTaken = decision.Action
	state.ActionResponse = result.Message
	state.FinalResponse = result.Message
	if !result.Success {
		// 后端拒绝执行（订单不存在、已发货不可取消等）转人工处理，
		// 拒绝原因随交接摘要带给坐席。后端动作不自动重试。
		state.escalate(result.Message)
		state.NextStep = StepEscalation
		return state, nil
	}
	state.setResolution(StatusResolved)
	state.NextStep = StepFollowup
	return state, nil
}

// actionPending 记录待澄清状态并把反问转给客户。
func (h *Handlers) actionPending(state State, response string) State {
	if strings.TrimSpace(response) == "" {
		response = actionClarify
	}
	state.FinalResponse = response
	state.setResolution(StatusPartial)
	state.NextStep = StepFollowup
	return state
}

// dispatch 通过 ToolsNode 单次执行选定的动作。
func (h *Handlers) dispatch(ctx context.Context, traceID string, action string, params map[string]string) (*storage.OpResult, error) {
	if h.toolsNode == nil {
		return nil, fmt.Errorf("tools node not configured")
	}

	args, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal action params: %w", err)
	}

	input := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{
				ID:   fmt.Sprintf("%s-%s", traceID, action),
				Type: "function",
				Function: schema.FunctionCall{
					Name:      action,
					Arguments: string(args),
				},
			},
		},
	}

	outputs, err := h.toolsNode.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("invoke tools node: %w", err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("tools node returned no output")
	}

	var result storage.OpResult
	if err := json.Unmarshal([]byte(outputs[0].Content), &result); err != nil {
		return nil, fmt.Errorf("unmarshal tool output: %w", err)
	}
	return &result, nil
}

// parseActionDecision 解析动作决策；无法解析时退化为反问客户。
func parseActionDecision(raw string) actionDecision {
	if payload := extractJSONPayload(raw); payload != "" {
		var d actionDecision
		if err := json.Unmarshal([]byte(payload), &d); err == nil && d.Action != "" {
			return d
		}
	}
	return actionDecision{Action: "ask_customer", Response: actionClarify}
}
