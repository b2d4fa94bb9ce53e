package agent

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/DeskAgent/internal/storage"
)

// scriptGen 按脚本依次返回回复；脚本耗尽后返回错误。
type scriptGen struct {
	responses []string
	calls     int
}

func (g *scriptGen) Generate(ctx context.Context, prompt string) (string, error) {
	return g.GenerateMessages(ctx, []*schema.Message{schema.UserMessage(prompt)})
}

func (g *scriptGen) GenerateMessages(_ context.Context, _ []*schema.Message) (string, error) {
	if g.calls >= len(g.responses) {
		return "", errors.New("script exhausted")
	}
	resp := g.responses[g.calls]
	g.calls++
	return resp, nil
}

// failGen 始终失败，模拟所有候选模型耗尽。
type failGen struct{}

func (failGen) Generate(context.Context, string) (string, error) {
	return "", errors.New("all candidate models exhausted")
}

func (failGen) GenerateMessages(context.Context, []*schema.Message) (string, error) {
	return "", errors.New("all candidate models exhausted")
}

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open(ctx, storage.Config{
		Path: filepath.Join(t.TempDir(), "deskagent.db"),
	})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestHandlers(t *testing.T, gen *scriptGen) *Handlers {
	t.Helper()
	h, err := NewHandlers(context.Background(), HandlersConfig{
		Generator: gen,
		Store:     newTestStore(t),
	})
	if err != nil {
		t.Fatalf("new handlers: %v", err)
	}
	return h
}

func runGraph(t *testing.T, h *Handlers, variant string, query string) State {
	t.Helper()
	ctx := context.Background()
	g, err := BuildGraph(ctx, h, variant)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	out, err := g.Invoke(ctx, NewState("test-trace", query, nil))
	if err != nil {
		t.Fatalf("invoke graph: %v", err)
	}
	return out
}

func TestFullSystemOrderStatusAction(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "action", "intent": "order_status", "urgency": "medium", "sentiment": "neutral", "reasoning": "wants order status", "confidence": 0.9, "entities": {"order_id": "12345"}}`,
		`{"action": "check_order_status", "params": {"order_id": "12345"}, "response": "Let me check that order."}`,
		`{"needs_followup": true, "message": "Is there anything else I can help you with today?"}`,
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "Where is my order #12345?")

	wantSeq := []string{StepTriage, StepAction, StepFollowup}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("unexpected sequence: %v", out.AgentSequence)
	}
	if out.ActionTaken != "check_order_status" {
		t.Fatalf("unexpected action: %s", out.ActionTaken)
	}
	if !strings.Contains(out.FinalResponse, "currently shipped") {
		t.Fatalf("response should report status: %s", out.FinalResponse)
	}
	if !strings.Contains(out.FinalResponse, "anything else") {
		t.Fatalf("response should include follow-up: %s", out.FinalResponse)
	}
	if out.ResolutionStatus != StatusResolved {
		t.Fatalf("unexpected status: %s", out.ResolutionStatus)
	}
}

func TestFullSystemKnowledgeQuestion(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "knowledge", "intent": "general_inquiry", "urgency": "low", "sentiment": "neutral", "reasoning": "policy question", "confidence": 0.85, "entities": {}}`,
		"We accept returns within 30 days of delivery in original condition.",
		`{"needs_followup": false, "message": ""}`,
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "What is your warranty on laptops?")

	wantSeq := []string{StepTriage, StepKnowledge, StepFollowup}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("unexpected sequence: %v", out.AgentSequence)
	}
	if out.FinalResponse != "We accept returns within 30 days of delivery in original condition." {
		t.Fatalf("unexpected response: %s", out.FinalResponse)
	}
	if out.NeedsEscalation {
		t.Fatal("knowledge answer should not escalate")
	}
	if out.ResolutionStatus != StatusResolved {
		t.Fatalf("unexpected status: %s", out.ResolutionStatus)
	}
}

func TestFullSystemEscalationFastPath(t *testing.T) {
	// 快速通道不调用分诊 LLM，只有升级摘要一次调用。
	gen := &scriptGen{responses: []string{
		"Customer demands a manager. Negative sentiment. Nothing attempted yet.",
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "This is ridiculous, I want to speak to manager!")

	wantSeq := []string{StepTriage, StepEscalation}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("unexpected sequence: %v", out.AgentSequence)
	}
	if !out.NeedsEscalation || out.ResolutionStatus != StatusEscalated {
		t.Fatalf("expected escalation, got %+v", out)
	}
	if out.FinalResponse != escalationCustomerMessage {
		t.Fatalf("unexpected customer message: %s", out.FinalResponse)
	}
	if out.EscalationSummary == "" {
		t.Fatal("expected handover summary")
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 generator call (summary only), got %d", gen.calls)
	}
}

func TestFullSystemUnknownOrderEscalates(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "action", "intent": "order_status", "urgency": "medium", "sentiment": "neutral", "reasoning": "wants order status", "confidence": 0.9, "entities": {"order_id": "99999"}}`,
		`{"action": "check_order_status", "params": {"order_id": "99999"}, "response": "Checking."}`,
		"Customer referenced order 99999 which does not exist in the system.",
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "Where is my order #99999?")

	wantSeq := []string{StepTriage, StepAction, StepEscalation}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("unexpected sequence: %v", out.AgentSequence)
	}
	if !out.NeedsEscalation || out.ResolutionStatus != StatusEscalated {
		t.Fatalf("backend failure must escalate, got %+v", out)
	}
	if out.FinalResponse != escalationCustomerMessage {
		t.Fatalf("unexpected customer message: %s", out.FinalResponse)
	}
	if !strings.Contains(out.EscalationReason, "not found") {
		t.Fatalf("handover must carry the backend reason: %s", out.EscalationReason)
	}
}

func TestFullSystemCancelOrderResolves(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "action", "intent": "cancel_order", "urgency": "medium", "sentiment": "neutral", "reasoning": "wants to cancel", "confidence": 0.9, "entities": {"order_id": "12345"}}`,
		`{"action": "cancel_order", "params": {"order_id": "12345", "reason": "changed my mind"}, "response": "Cancelling now."}`,
		`{"needs_followup": true, "message": "Is there anything else I can help you with today?"}`,
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "Cancel order 12345")

	wantSeq := []string{StepTriage, StepAction, StepFollowup}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("unexpected sequence: %v", out.AgentSequence)
	}
	if out.Entities["order_id"] != "12345" {
		t.Fatalf("order id not extracted: %v", out.Entities)
	}
	if out.ResolutionStatus != StatusResolved || out.NeedsEscalation {
		t.Fatalf("successful cancellation must resolve, got %+v", out)
	}
	if !strings.Contains(out.FinalResponse, "has been cancelled") {
		t.Fatalf("expected cancellation confirmation: %s", out.FinalResponse)
	}
	if !strings.Contains(out.FinalResponse, "anything else") {
		t.Fatalf("expected follow-up after complex action: %s", out.FinalResponse)
	}
}

func TestTriageOverridesModelEscalationToAction(t *testing.T) {
	// 模型把普通取消请求判成升级，改派规则应拉回 action。
	gen := &scriptGen{responses: []string{
		`{"route_to": "escalation", "intent": "cancel_order", "urgency": "medium", "sentiment": "neutral", "reasoning": "model is overly cautious", "confidence": 0.6, "entities": {"order_id": "67890"}}`,
		`{"action": "cancel_order", "params": {"order_id": "67890", "reason": "customer request"}, "response": "ok"}`,
		`{"needs_followup": false, "message": ""}`,
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "Please cancel order #67890")

	wantSeq := []string{StepTriage, StepAction, StepFollowup}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("override must route to action, got %v", out.AgentSequence)
	}
	if out.NeedsEscalation {
		t.Fatal("overridden route must not mark escalation")
	}
	if !strings.Contains(out.FinalResponse, "has been cancelled") {
		t.Fatalf("unexpected response: %s", out.FinalResponse)
	}
}

func TestTriageOverridesModelEscalationToKnowledge(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "escalation", "intent": "general_inquiry", "urgency": "low", "sentiment": "neutral", "reasoning": "model is overly cautious", "confidence": 0.5, "entities": {}}`,
	}}
	h := newTestHandlers(t, gen)

	out, err := h.Triage(context.Background(), NewState("t", "Do you price match other retailers?", nil))
	if err != nil {
		t.Fatalf("triage: %v", err)
	}
	if out.RouteTo != StepKnowledge {
		t.Fatalf("informational query must be rerouted to knowledge, got %s", out.RouteTo)
	}
	if out.NeedsEscalation {
		t.Fatal("overridden route must not mark escalation")
	}
}

func TestTriageKeepsExplicitEscalationRequest(t *testing.T) {
	// 点名要法律途径时升级路由保持不变。
	gen := &scriptGen{responses: []string{
		"Customer is threatening legal action over a billing dispute.",
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "Fix this or I will take legal action")

	wantSeq := []string{StepTriage, StepEscalation}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("explicit escalation request must escalate, got %v", out.AgentSequence)
	}
}

func TestActionFillsOrderIDFromEntities(t *testing.T) {
	// 动作决策缺 order_id，由分诊提取的实体补齐。
	gen := &scriptGen{responses: []string{
		`{"route_to": "action", "intent": "refund_request", "urgency": "high", "sentiment": "negative", "reasoning": "refund", "confidence": 0.9, "entities": {"order_id": "12345"}}`,
		`{"action": "initiate_refund", "params": {}, "response": "Starting your refund."}`,
		`{"needs_followup": false, "message": ""}`,
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "This arrived damaged, refund order #12345")

	if out.ActionTaken != "initiate_refund" {
		t.Fatalf("unexpected action: %s", out.ActionTaken)
	}
	if !strings.Contains(out.FinalResponse, "Refund of $1299.99 initiated") {
		t.Fatalf("unexpected response: %s", out.FinalResponse)
	}
}

func TestActionAsksWhenParamsMissing(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "action", "intent": "refund_request", "urgency": "medium", "sentiment": "neutral", "reasoning": "refund", "confidence": 0.8, "entities": {}}`,
		`{"action": "initiate_refund", "params": {}, "response": ""}`,
		`{"needs_followup": false, "message": ""}`,
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "I want a refund")

	if out.ActionTaken != "" {
		t.Fatalf("no action should execute without params, got %s", out.ActionTaken)
	}
	if out.ResolutionStatus != StatusPartial {
		t.Fatalf("unexpected status: %s", out.ResolutionStatus)
	}
	if !strings.Contains(out.FinalResponse, "order number") {
		t.Fatalf("expected clarifying question: %s", out.FinalResponse)
	}
}

func TestTriageGarbageOutputFallsBackToKeywords(t *testing.T) {
	gen := &scriptGen{responses: []string{
		"I am not sure what to do with this one.",
		`{"action": "cancel_order", "params": {"order_id": "67890"}, "response": "ok"}`,
		`{"needs_followup": true, "message": "Anything else?"}`,
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantFull, "cancel order #67890")

	if out.RouteTo != StepAction {
		t.Fatalf("keyword fallback should route to action, got %s", out.RouteTo)
	}
	if !strings.Contains(out.FinalResponse, "has been cancelled") {
		t.Fatalf("unexpected response: %s", out.FinalResponse)
	}
	if out.ResolutionStatus != StatusResolved {
		t.Fatalf("successful cancellation should resolve, got %s", out.ResolutionStatus)
	}
}

func TestKnowledgeLLMFailureDoesNotEscalate(t *testing.T) {
	h, err := NewHandlers(context.Background(), HandlersConfig{
		Generator: failGen{},
		Store:     newTestStore(t),
	})
	if err != nil {
		t.Fatalf("new handlers: %v", err)
	}

	out, err := h.Knowledge(context.Background(), NewState("t", "what laptops do you sell", nil))
	if err != nil {
		t.Fatalf("knowledge step should not fail: %v", err)
	}
	if out.NeedsEscalation {
		t.Fatal("internal failure must not escalate")
	}
	if !strings.Contains(out.FinalResponse, "rephrase") {
		t.Fatalf("expected apology asking to rephrase: %s", out.FinalResponse)
	}
	if out.NextStep != StepFollowup {
		t.Fatalf("unexpected next step: %s", out.NextStep)
	}
}

func TestTriageLLMFailurePropagates(t *testing.T) {
	h, err := NewHandlers(context.Background(), HandlersConfig{
		Generator: failGen{},
		Store:     newTestStore(t),
	})
	if err != nil {
		t.Fatalf("new handlers: %v", err)
	}

	if _, err := h.Triage(context.Background(), NewState("t", "what is your return policy", nil)); err == nil {
		t.Fatal("triage must propagate generator exhaustion")
	}
}

func TestNoFollowupVariantSkipsFollowup(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "knowledge", "intent": "general_inquiry", "urgency": "low", "sentiment": "neutral", "confidence": 0.8}`,
		"Standard shipping is free over $50.",
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantNoFollowup, "How much is shipping?")

	wantSeq := []string{StepTriage, StepKnowledge}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("unexpected sequence: %v", out.AgentSequence)
	}
	if gen.calls != 2 {
		t.Fatalf("followup generator must not be called, got %d calls", gen.calls)
	}
}

func TestFollowupNonJSONOutputKeepsSequenceDefault(t *testing.T) {
	// 模型输出纯文本而非 JSON：是否跟进仍按序列兜底判断。
	gen := &scriptGen{responses: []string{
		"Thanks for chatting, let me know if you need anything!",
		"Thanks for chatting, let me know if you need anything!",
	}}
	h := newTestHandlers(t, gen)

	// 纯咨询路径未执行动作，不追加跟进。
	st := NewState("t", "What is your return policy?", nil)
	st.FinalResponse = "Returns are accepted within 30 days."
	out, err := h.Followup(context.Background(), st)
	if err != nil {
		t.Fatalf("followup: %v", err)
	}
	if out.FollowupResponse != "" {
		t.Fatalf("informational exchange must not gain a follow-up: %q", out.FollowupResponse)
	}

	// 动作路径采用模型给出的文案。
	st = NewState("t", "Cancel order #67890", nil)
	st.ActionTaken = "cancel_order"
	st.ActionResponse = "Order #67890 has been cancelled."
	st.FinalResponse = st.ActionResponse
	out, err = h.Followup(context.Background(), st)
	if err != nil {
		t.Fatalf("followup: %v", err)
	}
	if !strings.Contains(out.FinalResponse, "let me know if you need anything") {
		t.Fatalf("action path should adopt the raw follow-up text: %q", out.FinalResponse)
	}
}

func TestActionOnlyVariantIgnoresRoute(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "knowledge", "intent": "general_inquiry", "urgency": "low", "sentiment": "neutral", "confidence": 0.8}`,
		`{"action": "ask_customer", "params": {}, "response": "Could you share your order number?"}`,
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantActionOnly, "What is your warranty policy?")

	wantSeq := []string{StepTriage, StepAction}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("unexpected sequence: %v", out.AgentSequence)
	}
}

func TestMinimalVariantFoldsEscalationIntoKnowledge(t *testing.T) {
	// 快速通道判定升级，但 minimal 变体把升级路由并入 knowledge。
	gen := &scriptGen{responses: []string{
		"I understand your frustration. A support specialist can be reached at 1-800-TECHGEAR.",
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantMinimal, "I demand to talk to human")

	wantSeq := []string{StepTriage, StepKnowledge}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("unexpected sequence: %v", out.AgentSequence)
	}
}

func TestMinimalVariantCannotReachEscalation(t *testing.T) {
	// 模型自认无法处理，但 minimal 变体没有接 escalation 节点。
	gen := &scriptGen{responses: []string{
		`{"route_to": "knowledge", "intent": "general_inquiry", "urgency": "low", "sentiment": "neutral", "confidence": 0.7}`,
		"I cannot help with this, it is outside my scope.",
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantMinimal, "Can you dispute a charge with my bank?")

	wantSeq := []string{StepTriage, StepKnowledge}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("minimal variant must stop after knowledge, got %v", out.AgentSequence)
	}
}

func TestActionOnlyVariantCannotReachEscalation(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "action", "intent": "order_status", "urgency": "medium", "sentiment": "neutral", "confidence": 0.9, "entities": {"order_id": "99999"}}`,
		`{"action": "check_order_status", "params": {"order_id": "99999"}, "response": "Checking."}`,
	}}
	h := newTestHandlers(t, gen)

	out := runGraph(t, h, VariantActionOnly, "Where is order #99999?")

	wantSeq := []string{StepTriage, StepAction}
	if !reflect.DeepEqual(out.AgentSequence, wantSeq) {
		t.Fatalf("action_only variant must stop after action, got %v", out.AgentSequence)
	}
}

func TestRunnerPersistsConversation(t *testing.T) {
	gen := &scriptGen{responses: []string{
		`{"route_to": "knowledge", "intent": "general_inquiry", "urgency": "low", "sentiment": "neutral", "confidence": 0.8}`,
		"Returns are accepted within 30 days.",
		`{"needs_followup": false, "message": ""}`,
	}}
	store := newTestStore(t)
	h, err := NewHandlers(context.Background(), HandlersConfig{Generator: gen, Store: store})
	if err != nil {
		t.Fatalf("new handlers: %v", err)
	}
	g, err := BuildGraph(context.Background(), h, VariantFull)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	runner := NewRunner(g, store, nil)
	res, err := runner.Run(context.Background(), "What is your return policy?", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Response == "" || res.TraceID == "" {
		t.Fatalf("incomplete result: %+v", res)
	}

	recs, err := store.QueryConversationRecords(context.Background(), storage.ConversationQuery{TraceID: res.TraceID})
	if err != nil {
		t.Fatalf("query records: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Status != StatusResolved || recs[0].Escalated {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
	if !strings.Contains(recs[0].SequenceJSON, StepKnowledge) {
		t.Fatalf("sequence not persisted: %s", recs[0].SequenceJSON)
	}
}

func TestBaselineExecutesInlineAction(t *testing.T) {
	gen := &scriptGen{responses: []string{
		"I'll take care of that right away.\nACTION: check_order_status(order_id=12345)",
	}}
	store := newTestStore(t)
	h, err := NewHandlers(context.Background(), HandlersConfig{Generator: gen, Store: store})
	if err != nil {
		t.Fatalf("new handlers: %v", err)
	}

	b := NewBaseline(h, 5, nil)
	res, err := b.Run(context.Background(), "Where is my order #12345?", nil)
	if err != nil {
		t.Fatalf("baseline run: %v", err)
	}
	if !reflect.DeepEqual(res.AgentSequence, []string{BaselineStepName}) {
		t.Fatalf("unexpected sequence: %v", res.AgentSequence)
	}
	if strings.Contains(res.Response, "ACTION:") {
		t.Fatalf("action line should be replaced: %s", res.Response)
	}
	if !strings.Contains(res.Response, "currently shipped") {
		t.Fatalf("expected backend result in response: %s", res.Response)
	}
}

func TestBaselinePlainAnswer(t *testing.T) {
	gen := &scriptGen{responses: []string{
		"Our return window is 30 days from delivery.",
	}}
	h, err := NewHandlers(context.Background(), HandlersConfig{Generator: gen, Store: newTestStore(t)})
	if err != nil {
		t.Fatalf("new handlers: %v", err)
	}

	b := NewBaseline(h, 5, nil)
	res, err := b.Run(context.Background(), "What is your return policy?", nil)
	if err != nil {
		t.Fatalf("baseline run: %v", err)
	}
	if res.Status != StatusResolved || res.Escalated {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Response != "Our return window is 30 days from delivery." {
		t.Fatalf("unexpected response: %s", res.Response)
	}
}

func TestSequenceInvariant(t *testing.T) {
	scripts := map[string][]string{
		"action": {
			`{"route_to": "action", "intent": "order_status", "urgency": "medium", "sentiment": "neutral", "confidence": 0.9, "entities": {"order_id": "12345"}}`,
			`{"action": "check_order_status", "params": {"order_id": "12345"}, "response": "ok"}`,
			`{"needs_followup": false, "message": ""}`,
		},
		"knowledge": {
			`{"route_to": "knowledge", "intent": "general_inquiry", "urgency": "low", "sentiment": "neutral", "confidence": 0.8}`,
			"Here is the answer.",
			`{"needs_followup": false, "message": ""}`,
		},
	}

	for name, script := range scripts {
		gen := &scriptGen{responses: script}
		h := newTestHandlers(t, gen)
		out := runGraph(t, h, VariantFull, "where is order #12345")

		if len(out.AgentSequence) < 2 || len(out.AgentSequence) > 4 {
			t.Errorf("%s: sequence length out of bounds: %v", name, out.AgentSequence)
		}
		if out.AgentSequence[0] != StepTriage {
			t.Errorf("%s: first step must be triage: %v", name, out.AgentSequence)
		}
	}
}
