package agent

import (
	"regexp"
	"strings"
)

// 情感词表。得分 = (正面词数 - 负面词数) / 总命中数，阈值 ±0.3。
var negativeWords = []string{
	"angry", "frustrated", "terrible", "awful", "horrible", "bad",
	"disappointed", "upset", "hate", "worst", "useless", "broken",
	"damaged", "never", "unacceptable", "ridiculous",
}

var positiveWords = []string{
	"great", "excellent", "love", "perfect", "amazing", "wonderful",
	"fantastic", "good", "thank", "appreciate", "satisfied", "happy",
}

// 出现即强制升级的关键字，优先级高于 LLM 的路由决策。
var escalationKeywords = []string{
	"speak to manager", "talk to human", "transfer me", "real person",
	"lawyer", "legal action", "sue", "fraud", "hacked", "unauthorized",
	"security breach",
}

// 动作类关键字，作为 LLM 不可用时的路由兜底。
var actionKeywords = []string{
	"cancel", "refund", "return", "modify", "change", "update", "reset",
}

// 回复中出现这些短语说明模型自认无法处理，按升级处理。
var insufficiencyPhrases = []string{
	"speak with a human",
	"talk to a manager",
	"transfer to agent",
	"i cannot help with this",
}

var orderIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`#(\d{5,})`),
	regexp.MustCompile(`(?i)order\s*#?(\d{5,})`),
	regexp.MustCompile(`(?i)ID\s*#?(\d{5,})`),
}

// ExtractOrderID 从文本中提取订单号；未命中返回空串。
func ExtractOrderID(text string) string {
	for _, re := range orderIDPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// WantsHuman 判断客户是否明确要求人工/法律升级。
func WantsHuman(query string) bool {
	queryLower := strings.ToLower(query)
	for _, kw := range escalationKeywords {
		if strings.Contains(queryLower, kw) {
			return true
		}
	}
	return false
}

// HasActionKeyword 判断提问是否包含动作类关键字。
func HasActionKeyword(query string) bool {
	queryLower := strings.ToLower(query)
	for _, kw := range actionKeywords {
		if strings.Contains(queryLower, kw) {
			return true
		}
	}
	return false
}

// IndicatesInsufficiency 判断模型回复是否自认无法处理。
func IndicatesInsufficiency(response string) bool {
	respLower := strings.ToLower(response)
	for _, phrase := range insufficiencyPhrases {
		if strings.Contains(respLower, phrase) {
			return true
		}
	}
	return false
}

// SentimentScore 基于词表计算情感得分，范围 [-1, 1]；无命中返回 0。
func SentimentScore(text string) float64 {
	textLower := strings.ToLower(text)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(textLower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(textLower, w) {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

// SentimentLabel 把情感得分映射为标签：>0.3 positive，<-0.3 negative，否则 neutral。
func SentimentLabel(text string) string {
	score := SentimentScore(text)
	switch {
	case score > 0.3:
		return "positive"
	case score < -0.3:
		return "negative"
	default:
		return "neutral"
	}
}

// ClassifyQuery 为 LLM 不可用时的路由兜底：
// 升级关键字 -> escalation，动作关键字 -> action，否则 knowledge。
func ClassifyQuery(query string) string {
	if WantsHuman(query) {
		return StepEscalation
	}
	if HasActionKeyword(query) {
		return StepAction
	}
	return StepKnowledge
}

// FallbackIntent 为 LLM 不可用时的意图兜底。
func FallbackIntent(query string) string {
	queryLower := strings.ToLower(query)
	switch {
	case strings.Contains(queryLower, "refund"):
		return "refund_request"
	case strings.Contains(queryLower, "order"):
		return "order_status"
	case strings.Contains(queryLower, "account") || strings.Contains(queryLower, "password"):
		return "account_issue"
	case WantsHuman(queryLower):
		return "complaint"
	default:
		return "general_inquiry"
	}
}
