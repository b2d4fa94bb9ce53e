package agent

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// 处理步骤名，同时作为图节点名与步骤序列中的元素。
const (
	StepTriage     = "triage"
	StepKnowledge  = "knowledge"
	StepAction     = "action"
	StepFollowup   = "followup"
	StepEscalation = "escalation"
)

// 处理终态。escalated 具有粘性：一旦升级不再被后续步骤降级。
// partial 表示客户得到了回复但事项未闭环（例如还在等客户补充订单号）。
const (
	StatusUnresolved = "unresolved"
	StatusResolved   = "resolved"
	StatusPartial    = "partial"
	StatusEscalated  = "escalated"
	StatusFailed     = "failed"
)

// State 定义了在处理流程图中流转的状态。
//
// 各步骤只填充自己负责的字段；NextStep 由当前步骤写入、分支函数读取；
// AgentSequence 记录实际执行过的步骤，首元素恒为 triage。
type State struct {
	// TraceID 串联一次处理链路。
	TraceID string `json:"trace_id"`
	// Query 为客户原始提问。
	Query string `json:"query"`
	// History 为多轮对话历史（User/Assistant 交替），注入生成提示词。
	History []*schema.Message `json:"history"`

	// 分诊结果。
	Intent     string  `json:"intent"`
	Urgency    string  `json:"urgency"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	// Entities 为提取出的实体（order_id / customer_id / product 等）。
	Entities map[string]string `json:"entities"`

	// RouteTo 为分诊决定的目标步骤（knowledge/action/escalation）。
	RouteTo string `json:"route_to"`
	// NextStep 为当前步骤写入的下一跳，Graph 分支据此路由。
	NextStep string `json:"next_step"`
	// AgentSequence 为实际执行过的步骤序列。
	AgentSequence []string `json:"agent_sequence"`

	// 各步骤的产出。
	KnowledgeResponse string `json:"knowledge_response"`
	ActionTaken       string `json:"action_taken"`
	ActionResponse    string `json:"action_response"`
	FollowupResponse  string `json:"followup_response"`
	FinalResponse     string `json:"final_response"`

	// 升级相关。EscalationSummary 为生成给人工坐席的内部交接摘要。
	NeedsEscalation   bool   `json:"needs_escalation"`
	EscalationReason  string `json:"escalation_reason"`
	EscalationSummary string `json:"escalation_summary"`

	// ResolutionStatus 为处理终态。
	ResolutionStatus string `json:"resolution_status"`

	// StartedAt 用于统计整条链路耗时。
	StartedAt time.Time `json:"started_at"`
}

// NewState 构造初始状态。
func NewState(traceID string, query string, history []*schema.Message) State {
	return State{
		TraceID:          traceID,
		Query:            query,
		History:          history,
		Entities:         map[string]string{},
		ResolutionStatus: StatusUnresolved,
		StartedAt:        time.Now(),
	}
}

// appendStep 追加一个已执行的步骤。
func (s *State) appendStep(step string) {
	s.AgentSequence = append(s.AgentSequence, step)
}

// setResolution 更新处理终态。终态只升不降：escalated 只允许被 failed
// 覆盖，resolved 不回退到 unresolved/partial。
func (s *State) setResolution(status string) {
	if status == StatusFailed {
		s.ResolutionStatus = StatusFailed
		return
	}
	if s.ResolutionStatus == StatusEscalated {
		return
	}
	if s.ResolutionStatus == StatusResolved && (status == StatusUnresolved || status == StatusPartial) {
		return
	}
	s.ResolutionStatus = status
}

// escalate 标记升级并保留最早的升级原因。
func (s *State) escalate(reason string) {
	s.NeedsEscalation = true
	if s.EscalationReason == "" {
		s.EscalationReason = reason
	}
	s.ResolutionStatus = StatusEscalated
}

const defaultHistoryWindow = 10

// recentHistory 返回最近 window 条历史消息；window<=0 使用默认窗口。
func (s *State) recentHistory(window int) []*schema.Message {
	if window <= 0 {
		window = defaultHistoryWindow
	}
	if len(s.History) <= window {
		return s.History
	}
	return s.History[len(s.History)-window:]
}
