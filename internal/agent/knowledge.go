package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"github.com/wwwzy/DeskAgent/internal/knowledge"
)

const knowledgeApology = "I'm sorry, I'm having trouble looking that up right now. Could you rephrase your question, or let me know if you'd like me to connect you with our support team?"

// Knowledge 基于检索上下文回答咨询类问题。
//
// 内部故障（检索或 LLM 失败）不升级：用致歉话术收尾并继续走
// followup，保证客户总能得到回复。只有模型自认无法处理时才升级。
func (h *Handlers) Knowledge(ctx context.Context, state State) (State, error) {
	state.appendStep(StepKnowledge)

	kbContext, err := knowledge.FormattedContext(ctx, h.retriever, state.Query, h.topK)
	if err != nil {
		h.log.Warn("knowledge retrieval failed",
			zap.String("trace_id", state.TraceID),
			zap.Error(err))
		kbContext = "No relevant information found in knowledge base."
	}

	products := knowledge.FormatProducts(knowledge.SearchProducts(state.Query, "", h.topK))

	messages, err := knowledgeTemplate().Format(ctx, map[string]any{
		"query":    state.Query,
		"history":  state.recentHistory(h.historyWindow),
		"context":  kbContext,
		"products": products,
		"policies": knowledge.CompanyPolicies,
	})
	if err != nil {
		return state, fmt.Errorf("format knowledge template failed: %w", err)
	}

	answer, err := h.gen.GenerateMessages(ctx, messages)
	if err != nil {
		h.log.Warn("knowledge generate failed",
			zap.String("trace_id", state.TraceID),
			zap.Error(err))
		state.KnowledgeResponse = knowledgeApology
		state.FinalResponse = knowledgeApology
		state.setResolution(StatusResolved)
		state.NextStep = StepFollowup
		return state, nil
	}

	answer = strings.TrimSpace(answer)
	state.KnowledgeResponse = answer
	state.FinalResponse = answer

	// 模型自认无法处理时转人工，其余情况视为已解答。
	if IndicatesInsufficiency(answer) {
		state.escalate("knowledge step could not resolve the query")
		state.NextStep = StepEscalation
		return state, nil
	}

	state.setResolution(StatusResolved)
	state.NextStep = StepFollowup
	return state, nil
}
