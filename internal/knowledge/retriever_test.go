package knowledge

import (
	"context"
	"strings"
	"testing"
)

func TestRetrieveRanksQuestionHitsHigher(t *testing.T) {
	r := NewKeywordRetriever()
	ctx := context.Background()

	docs, err := r.Retrieve(ctx, "how long do refunds take", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) == 0 {
		t.Fatal("expected matches for refund query")
	}
	if !strings.Contains(strings.ToLower(docs[0].Content), "refund") {
		t.Fatalf("top match should be about refunds, got: %s", docs[0].Content)
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].Score > docs[i-1].Score {
			t.Fatalf("results not sorted by score: %d then %d", docs[i-1].Score, docs[i].Score)
		}
	}
}

func TestRetrieveTopKAndShortWords(t *testing.T) {
	r := NewKeywordRetriever()
	ctx := context.Background()

	docs, err := r.Retrieve(ctx, "shipping returns warranty refunds order support", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) > 3 {
		t.Fatalf("expected at most 3 docs, got %d", len(docs))
	}

	// 长度不大于 3 的词不参与匹配。
	docs, err = r.Retrieve(ctx, "how do i a to", 5)
	if err != nil {
		t.Fatalf("retrieve short words: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no matches for short-word query, got %d", len(docs))
	}
}

func TestFormattedContext(t *testing.T) {
	r := NewKeywordRetriever()
	ctx := context.Background()

	out, err := FormattedContext(ctx, r, "password reset", 5)
	if err != nil {
		t.Fatalf("formatted context: %v", err)
	}
	if !strings.HasPrefix(out, "Relevant information from knowledge base:") {
		t.Fatalf("unexpected prefix: %s", out)
	}
	if !strings.Contains(out, "reset") {
		t.Fatalf("expected reset answer in context: %s", out)
	}

	out, err = FormattedContext(ctx, r, "zzzz qqqq", 5)
	if err != nil {
		t.Fatalf("formatted context no match: %v", err)
	}
	if out != "No relevant information found in knowledge base." {
		t.Fatalf("unexpected no-match output: %s", out)
	}
}

func TestSearchByIntent(t *testing.T) {
	r := NewKeywordRetriever()

	docs := r.SearchByIntent("refund")
	if len(docs) == 0 {
		t.Fatal("expected refund intent matches")
	}
	for _, d := range docs {
		if !strings.EqualFold(d.Intent, "refund") && !strings.EqualFold(d.Category, "refund") {
			t.Fatalf("unexpected intent: %s/%s", d.Intent, d.Category)
		}
	}
}

func TestSearchProducts(t *testing.T) {
	got := SearchProducts("laptop", "", 5)
	if len(got) == 0 {
		t.Fatal("expected laptop matches")
	}
	if !strings.Contains(strings.ToLower(got[0].Name), "laptop") {
		t.Fatalf("top match should be a laptop, got: %s", got[0].Name)
	}

	// 名称整串命中优先于描述命中。
	got = SearchProducts("wireless earbuds", "", 5)
	if len(got) == 0 || got[0].ProductID != "AUDIO-001" {
		t.Fatalf("expected AeroBuds first, got: %+v", got)
	}

	// 类别过滤。
	got = SearchProducts("wireless", "Computer Accessories", 5)
	for _, p := range got {
		if p.Category != "Computer Accessories" {
			t.Fatalf("category filter leaked: %s", p.Category)
		}
	}

	if got := SearchProducts("zzzz", "", 5); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestGetProductAndCompanyInfo(t *testing.T) {
	if p := GetProduct("LAPTOP-001"); p == nil || p.Price != 1299.99 {
		t.Fatalf("unexpected product: %+v", p)
	}
	if p := GetProduct("NOPE-999"); p != nil {
		t.Fatalf("expected nil for unknown product, got %+v", p)
	}

	if info := CompanyInfo("shipping"); !strings.Contains(info, "$50") {
		t.Fatalf("unexpected shipping info: %s", info)
	}
	if info := CompanyInfo(""); !strings.Contains(info, "TechGear Electronics") {
		t.Fatalf("unexpected general info: %s", info)
	}
	if info := CompanyInfo("bogus"); !strings.Contains(info, "Please specify") {
		t.Fatalf("unexpected unknown-topic info: %s", info)
	}
}
