package ablation

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/DeskAgent/internal/agent"
	"github.com/wwwzy/DeskAgent/internal/storage"
)

func writeDataset(path string, cases []TestCase) error {
	data, err := json.Marshal(cases)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// routedGen 按提示词中的步骤标识返回对应格式的固定回复，
// 让并发执行下的结果保持确定。
type routedGen struct{}

func (g routedGen) Generate(ctx context.Context, prompt string) (string, error) {
	return g.GenerateMessages(ctx, []*schema.Message{schema.UserMessage(prompt)})
}

func (routedGen) GenerateMessages(_ context.Context, msgs []*schema.Message) (string, error) {
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	text := sb.String()

	if strings.Contains(text, "trigger-model-outage") {
		return "", errors.New("model exploded")
	}

	switch {
	case strings.Contains(text, "triage step"):
		return `{"route_to": "knowledge", "intent": "general_inquiry", "urgency": "low", "sentiment": "neutral", "reasoning": "info request", "confidence": 0.8, "entities": {}}`, nil
	case strings.Contains(text, "action step"):
		return `{"action": "ask_customer", "params": {}, "response": "Could you share your order number?"}`, nil
	case strings.Contains(text, "follow-up step"):
		return `{"needs_followup": false, "message": ""}`, nil
	case strings.Contains(text, "escalation step"):
		return "Summary for the human agent.", nil
	default:
		return "Here is the answer to your question.", nil
	}
}

func newStudy(t *testing.T) (*Study, *storage.Storage) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, storage.Config{
		Path: filepath.Join(t.TempDir(), "deskagent.db"),
	})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	h, err := agent.NewHandlers(ctx, agent.HandlersConfig{
		Generator: routedGen{},
		Store:     store,
	})
	if err != nil {
		t.Fatalf("new handlers: %v", err)
	}

	study, err := NewStudy(h, store, nil)
	if err != nil {
		t.Fatalf("new study: %v", err)
	}
	return study, store
}

func TestStudyRunAllConfigs(t *testing.T) {
	study, store := newStudy(t)
	ctx := context.Background()

	report, err := study.Run(ctx, Config{SampleSize: 6, Workers: 2})
	if err != nil {
		t.Fatalf("run study: %v", err)
	}
	if report.RunID == "" {
		t.Fatal("run id must be generated")
	}
	if report.SampleSize != 6 {
		t.Fatalf("unexpected sample size: %d", report.SampleSize)
	}

	wantConfigs := append(agent.Variants(), ConfigBaseline)
	if len(report.Configs) != len(wantConfigs) {
		t.Fatalf("expected %d configs, got %d", len(wantConfigs), len(report.Configs))
	}
	for i, m := range report.Configs {
		if m.Configuration != wantConfigs[i] {
			t.Errorf("config %d = %s, want %s", i, m.Configuration, wantConfigs[i])
		}
		if m.TotalQueries != 6 {
			t.Errorf("%s: total queries = %d, want 6", m.Configuration, m.TotalQueries)
		}
		if m.Failures != 0 {
			t.Errorf("%s: unexpected failures: %d", m.Configuration, m.Failures)
		}
		if m.AvgProcessingTime <= 0 {
			t.Errorf("%s: avg time must be positive", m.Configuration)
		}
	}

	// 固定路由下的步骤数是确定的。
	wantAgents := map[string]float64{
		agent.VariantFull:       3.0,
		agent.VariantNoFollowup: 2.0,
		agent.VariantActionOnly: 2.0,
		agent.VariantMinimal:    2.0,
		ConfigBaseline:          1.0,
	}
	for name, want := range wantAgents {
		m, ok := report.Config(name)
		if !ok {
			t.Fatalf("missing config %s", name)
		}
		if m.AvgAgentsUsed != want {
			t.Errorf("%s: avg agents = %.1f, want %.1f", name, m.AvgAgentsUsed, want)
		}
	}

	// 全部样本按配置落库。
	recs, err := store.QueryAblationResults(ctx, storage.AblationQuery{RunID: report.RunID})
	if err != nil {
		t.Fatalf("query ablation results: %v", err)
	}
	if len(recs) != 6*len(wantConfigs) {
		t.Fatalf("expected %d persisted results, got %d", 6*len(wantConfigs), len(recs))
	}

	ok := true
	full, err := store.QueryAblationResults(ctx, storage.AblationQuery{
		RunID:   report.RunID,
		Config:  agent.VariantFull,
		Success: &ok,
	})
	if err != nil {
		t.Fatalf("query full_system results: %v", err)
	}
	if len(full) != 6 {
		t.Fatalf("expected 6 successful full_system results, got %d", len(full))
	}
	for _, r := range full {
		if r.Steps != 3 {
			t.Errorf("full_system steps = %d, want 3", r.Steps)
		}
	}
}

func TestStudyCountsFailuresSeparately(t *testing.T) {
	study, _ := newStudy(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "dataset.json")
	cases := []TestCase{
		{ConversationID: "t1", Query: "What is your return policy?"},
		{ConversationID: "t2", Query: "please trigger-model-outage for me"},
		{ConversationID: "t3", Query: "How long does shipping take?"},
	}
	if err := writeDataset(path, cases); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	report, err := study.Run(ctx, Config{
		DatasetPath: path,
		SampleSize:  3,
		Workers:     1,
	})
	if err != nil {
		t.Fatalf("run study: %v", err)
	}

	m, ok := report.Config(agent.VariantFull)
	if !ok {
		t.Fatal("missing full_system metrics")
	}
	if m.Failures != 1 {
		t.Fatalf("expected 1 failure, got %d", m.Failures)
	}
	if m.TotalQueries != 2 {
		t.Fatalf("failures must not count toward averages, got %d queries", m.TotalQueries)
	}

	b, ok := report.Config(ConfigBaseline)
	if !ok {
		t.Fatal("missing baseline metrics")
	}
	if b.Failures != 1 || b.TotalQueries != 2 {
		t.Fatalf("unexpected baseline metrics: %+v", b)
	}
}

func TestRunConfigSingleQuery(t *testing.T) {
	study, _ := newStudy(t)
	ctx := context.Background()

	res, err := study.RunConfig(ctx, agent.VariantFull, "What is your return policy?")
	if err != nil {
		t.Fatalf("run config: %v", err)
	}
	if res.Configuration != agent.VariantFull {
		t.Fatalf("unexpected configuration: %s", res.Configuration)
	}
	if res.AgentsUsed != 3 {
		t.Fatalf("expected 3 agents for the full system, got %d", res.AgentsUsed)
	}
	if res.Response == "" || res.Duration <= 0 {
		t.Fatalf("incomplete result: %+v", res)
	}

	if _, err := study.RunConfig(ctx, "no_such_config", "hello"); err == nil {
		t.Fatal("unknown configuration must be rejected")
	}
}

func TestLoadDatasetBuiltin(t *testing.T) {
	cases, err := LoadDataset("")
	if err != nil {
		t.Fatalf("load builtin dataset: %v", err)
	}
	if len(cases) < defaultSampleSize {
		t.Fatalf("builtin dataset must cover the default sample size, got %d", len(cases))
	}
	for _, c := range cases {
		if c.Query == "" || c.ConversationID == "" {
			t.Fatalf("incomplete case: %+v", c)
		}
	}
}

func TestLoadDatasetFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json")
	cases := []TestCase{
		{ConversationID: "c1", Query: "Where is my order?", Intent: "order_status"},
		{ConversationID: "c2", Query: "", Intent: "empty"},
	}
	if err := writeDataset(path, cases); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	loaded, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Query != "Where is my order?" {
		t.Fatalf("empty queries must be dropped: %+v", loaded)
	}

	if _, err := LoadDataset(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing dataset file")
	}
}

func TestReportFormat(t *testing.T) {
	report := &Report{
		RunID:      "run-1",
		SampleSize: 10,
		Configs: []ConfigMetrics{
			{Configuration: agent.VariantFull, AvgProcessingTime: 1200 * time.Millisecond, AvgAgentsUsed: 3.0, CSATScore: 4.5},
			{Configuration: agent.VariantNoFollowup, AvgProcessingTime: 900 * time.Millisecond, AvgAgentsUsed: 2.0, CSATScore: 4.2},
			{Configuration: ConfigBaseline, AvgProcessingTime: 2000 * time.Millisecond, AvgAgentsUsed: 1.0, CSATScore: 3.8},
		},
	}

	out := report.Format()
	for _, want := range []string{"run-1", agent.VariantFull, ConfigBaseline, "Follow-up step adds", "time difference"} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}
