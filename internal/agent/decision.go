package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Decision 为分诊 LLM 输出的结构化决策。
type Decision struct {
	RouteTo    string         `json:"route_to"`
	Intent     string         `json:"intent"`
	Urgency    string         `json:"urgency"`
	Sentiment  string         `json:"sentiment"`
	Reasoning  string         `json:"reasoning"`
	Confidence float64        `json:"confidence"`
	Entities   map[string]any `json:"entities"`
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseDecision 从模型输出中解析分诊决策。
//
// 解析是全函数：任何输入都返回可用的 Decision，永不失败。
// 依次尝试 ```json 围栏块、裸 JSON 对象；都失败时退回关键字分类，
// 解析成功但 route_to 为空时同样用关键字分类回填。
func ParseDecision(raw string, query string) Decision {
	if payload := extractJSONPayload(raw); payload != "" {
		var d Decision
		if err := json.Unmarshal([]byte(payload), &d); err == nil {
			d.RouteTo = normalizeRoute(d.RouteTo)
			if d.RouteTo == "" {
				d.RouteTo = ClassifyQuery(query)
			}
			if d.Intent == "" {
				d.Intent = FallbackIntent(query)
			}
			if d.Sentiment == "" {
				d.Sentiment = SentimentLabel(query)
			}
			if d.Urgency == "" {
				d.Urgency = "medium"
			}
			return d
		}
	}
	return fallbackDecision(query)
}

// extractJSONPayload 提取原始输出中的 JSON 对象文本；无法定位时返回空串。
func extractJSONPayload(raw string) string {
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}

// normalizeRoute 把模型可能输出的路由别名归一到已知步骤名；未知值返回空串。
func normalizeRoute(route string) string {
	switch strings.ToLower(strings.TrimSpace(route)) {
	case StepKnowledge, "knowledge_agent", "faq":
		return StepKnowledge
	case StepAction, "action_agent":
		return StepAction
	case StepEscalation, "escalation_agent", "human":
		return StepEscalation
	default:
		return ""
	}
}

// fallbackDecision 为关键字兜底决策，保证解析总能产出可路由的结果。
func fallbackDecision(query string) Decision {
	route := ClassifyQuery(query)
	return Decision{
		RouteTo:    route,
		Intent:     FallbackIntent(query),
		Urgency:    "medium",
		Sentiment:  SentimentLabel(query),
		Reasoning:  fmt.Sprintf("keyword fallback routed to %s", route),
		Confidence: 0.3,
		Entities:   map[string]any{},
	}
}

// EntityStrings 把决策中的实体值统一转成字符串表。
func (d Decision) EntityStrings() map[string]string {
	out := map[string]string{}
	for k, v := range d.Entities {
		switch val := v.(type) {
		case string:
			if val != "" {
				out[k] = val
			}
		case float64:
			out[k] = strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
		case nil:
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
