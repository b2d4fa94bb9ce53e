package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Document 为一次检索命中的条目。
type Document struct {
	// Content 为拼装后的可读内容（Q/A 格式）。
	Content string
	// Intent/Category 来自条目元数据，便于按意图过滤。
	Intent   string
	Category string
	// Score 为关键字匹配得分，越大越相关。
	Score int
}

// Retriever 是知识检索的最小接口，便于测试时注入假实现。
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Document, error)
}

const defaultTopK = 5

// KeywordRetriever 基于关键字匹配在内置 FAQ 库上检索。
//
// 打分规则：查询中长度大于 3 的词，命中问题 +2、命中答案 +1；
// 得分为零的条目不返回。结果按得分降序截取 topK。
type KeywordRetriever struct {
	entries []faqEntry
}

func NewKeywordRetriever() *KeywordRetriever {
	return &KeywordRetriever{entries: companyFAQs}
}

func (r *KeywordRetriever) Retrieve(_ context.Context, query string, topK int) ([]Document, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	queryLower := strings.ToLower(query)
	words := strings.Fields(queryLower)

	var matches []Document
	for _, entry := range r.entries {
		questionLower := strings.ToLower(entry.Question)
		answerLower := strings.ToLower(entry.Answer)

		score := 0
		for _, word := range words {
			if len(word) <= 3 {
				continue
			}
			if strings.Contains(questionLower, word) {
				score += 2
			}
			if strings.Contains(answerLower, word) {
				score += 1
			}
		}
		if score == 0 {
			continue
		}
		matches = append(matches, Document{
			Content:  fmt.Sprintf("Q: %s\nA: %s", entry.Question, entry.Answer),
			Intent:   entry.Intent,
			Category: entry.Category,
			Score:    score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// SearchByIntent 按意图/类别精确匹配返回条目。
func (r *KeywordRetriever) SearchByIntent(intent string) []Document {
	var out []Document
	for _, entry := range r.entries {
		if strings.EqualFold(entry.Intent, intent) || strings.EqualFold(entry.Category, intent) {
			out = append(out, Document{
				Content:  fmt.Sprintf("Q: %s\nA: %s", entry.Question, entry.Answer),
				Intent:   entry.Intent,
				Category: entry.Category,
			})
		}
		if len(out) == defaultTopK {
			break
		}
	}
	return out
}

// FormattedContext 把检索结果拼装为提示词上下文。无命中时返回固定提示。
func FormattedContext(ctx context.Context, r Retriever, query string, topK int) (string, error) {
	docs, err := r.Retrieve(ctx, query, topK)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "No relevant information found in knowledge base.", nil
	}

	var b strings.Builder
	b.WriteString("Relevant information from knowledge base:\n\n")
	for i, doc := range docs {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, doc.Content)
	}
	return strings.TrimSpace(b.String()), nil
}
