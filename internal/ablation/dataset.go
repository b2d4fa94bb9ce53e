package ablation

import (
	"encoding/json"
	"fmt"
	"os"
)

// TestCase 为一条评测样本。字段与数据集导出文件保持一致。
type TestCase struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"customer_query"`
	Intent         string `json:"intent"`
}

// LoadDataset 从 JSON 文件加载评测样本；path 为空时使用内置样本集。
func LoadDataset(path string) ([]TestCase, error) {
	if path == "" {
		return builtinDataset(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	var cases []TestCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}

	out := cases[:0]
	for _, c := range cases {
		if c.Query != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("dataset %s contains no usable cases", path)
	}
	return out, nil
}

// builtinDataset 返回内置的评测样本集，覆盖各意图与路由分支。
func builtinDataset() []TestCase {
	queries := []struct {
		query  string
		intent string
	}{
		{"Where is my order #12345?", "order_status"},
		{"I want to cancel my order #67890", "cancel_order"},
		{"Can you track order 12345 for me?", "order_status"},
		{"Cancel order #12345, I changed my mind", "cancel_order"},
		{"I need to change the shipping address on order #67890", "change_shipping_address"},
		{"Where is my refund?", "track_refund"},
		{"I want a refund for order #12345, it arrived damaged", "get_refund"},
		{"What is the status of refund REF10001?", "check_refund_status"},
		{"What is your return policy?", "check_return_policy"},
		{"How long does shipping usually take?", "delivery_period"},
		{"Do you ship internationally?", "delivery_options"},
		{"How much does shipping cost?", "check_invoice"},
		{"What laptops do you currently sell?", "product_inquiry"},
		{"Do you have wireless earbuds in stock?", "product_inquiry"},
		{"Tell me about the ProBook X15", "product_inquiry"},
		{"Is there a warranty on your products?", "warranty_inquiry"},
		{"I need to reset my password", "recover_password"},
		{"Please update my account address to 789 Pine Rd", "edit_account"},
		{"What payment methods do you accept?", "payment_issue"},
		{"I was charged twice for the same order", "payment_issue"},
		{"My package arrived broken, this is unacceptable", "complaint"},
		{"I've been waiting two weeks and nobody responds", "complaint"},
		{"I want to speak to a manager right now", "complaint"},
		{"Transfer me to a real person", "contact_human_agent"},
		{"My account was hacked, someone placed orders I didn't make", "complaint"},
		{"How do I contact customer service?", "contact_customer_service"},
		{"Can I return an item after 30 days?", "check_return_policy"},
		{"Modify order 67890 to ship to my work address", "change_order"},
		{"Check my account info for CUST001", "account_inquiry"},
		{"Thanks for the quick delivery, great service!", "feedback"},
	}

	cases := make([]TestCase, 0, len(queries))
	for i, q := range queries {
		cases = append(cases, TestCase{
			ConversationID: fmt.Sprintf("test_%04d", i),
			Query:          q.query,
			Intent:         q.intent,
		})
	}
	return cases
}
