package agent

import "testing"

func TestExtractOrderID(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Where is my order #12345?", "12345"},
		{"order 67890 hasn't arrived", "67890"},
		{"my Order#12345 please", "12345"},
		{"ID 54321 is wrong", "54321"},
		{"id #98765", "98765"},
		{"order #123 is too short", ""},
		{"no numbers here", ""},
	}
	for _, tc := range cases {
		if got := ExtractOrderID(tc.text); got != tc.want {
			t.Errorf("ExtractOrderID(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestWantsHuman(t *testing.T) {
	yes := []string{
		"I want to speak to manager now",
		"let me talk to human",
		"this is FRAUD",
		"my account was hacked",
		"I'm going to take legal action",
	}
	for _, q := range yes {
		if !WantsHuman(q) {
			t.Errorf("WantsHuman(%q) = false, want true", q)
		}
	}

	no := []string{
		"where is my order #12345",
		"what laptops do you sell",
		"cancel my order",
	}
	for _, q := range no {
		if WantsHuman(q) {
			t.Errorf("WantsHuman(%q) = true, want false", q)
		}
	}
}

func TestSentiment(t *testing.T) {
	cases := []struct {
		text  string
		label string
	}{
		{"this is terrible, awful, the worst service ever", "negative"},
		{"thank you, this is excellent and amazing", "positive"},
		{"where is my order", "neutral"},
		// 正负抵消：great + broken → 得分 0。
		{"great product but it arrived broken", "neutral"},
	}
	for _, tc := range cases {
		if got := SentimentLabel(tc.text); got != tc.label {
			t.Errorf("SentimentLabel(%q) = %s, want %s (score %v)", tc.text, got, tc.label, SentimentScore(tc.text))
		}
	}

	if s := SentimentScore("no sentiment words here at all"); s != 0 {
		t.Fatalf("expected 0 score, got %v", s)
	}
	if s := SentimentScore("terrible awful broken"); s != -1 {
		t.Fatalf("expected -1 score, got %v", s)
	}
}

func TestClassifyQuery(t *testing.T) {
	cases := map[string]string{
		"I want to talk to human":            StepEscalation,
		"cancel order #12345":                StepAction,
		"please refund me":                   StepAction,
		"reset my password":                  StepAction,
		"what is your warranty policy":       StepKnowledge,
		"do you sell wireless headphones":    StepKnowledge,
		"I will sue you, cancel everything!": StepEscalation, // 升级优先于动作
	}
	for q, want := range cases {
		if got := ClassifyQuery(q); got != want {
			t.Errorf("ClassifyQuery(%q) = %s, want %s", q, got, want)
		}
	}
}

func TestIndicatesInsufficiency(t *testing.T) {
	if !IndicatesInsufficiency("You should speak with a human agent about this.") {
		t.Fatal("expected insufficiency detection")
	}
	if !IndicatesInsufficiency("I cannot help with this request.") {
		t.Fatal("expected insufficiency detection")
	}
	if IndicatesInsufficiency("Your order has shipped and arrives Tuesday.") {
		t.Fatal("unexpected insufficiency detection")
	}
}

func TestFallbackIntent(t *testing.T) {
	cases := map[string]string{
		"I want a refund":          "refund_request",
		"where is my order":        "order_status",
		"reset my password please": "account_issue",
		"hello":                    "general_inquiry",
	}
	for q, want := range cases {
		if got := FallbackIntent(q); got != want {
			t.Errorf("FallbackIntent(%q) = %s, want %s", q, got, want)
		}
	}
}
