package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/DeskAgent/internal/config"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// openAIChatModel 是基于 chat/completions 协议的最小 ChatModel 实现，
// 适配任何 OpenAI 兼容端点（OpenAI/Groq 等）。
//
// 路由决策通过解析结构化文本完成，工具调用在本地分发，
// 因此 WithTools 仅记录工具信息，不随请求上报。
type openAIChatModel struct {
	apiKey  string
	baseURL string
	model   string

	temperature float64
	topP        float64
	topK        int
	maxTokens   int

	httpClient *http.Client
	tools      []*schema.ToolInfo
}

var _ model.ToolCallingChatModel = (*openAIChatModel)(nil)

func newOpenAIChatModel(cfg config.LLMConfig, modelID string) *openAIChatModel {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	return &openAIChatModel{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       modelID,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		topK:        cfg.TopK,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	// TopK 仅部分兼容端点（Groq/vLLM/Ollama 等）支持，官方端点不下发。
	TopK      *int `json:"top_k,omitempty"`
	MaxTokens *int `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// buildRequest 组装请求体，生成参数按配置透传。
func (m *openAIChatModel) buildRequest(input []*schema.Message) chatCompletionRequest {
	req := chatCompletionRequest{
		Model:    m.model,
		Messages: toChatMessages(input),
	}
	if m.temperature > 0 {
		req.Temperature = &m.temperature
	}
	if m.topP > 0 {
		req.TopP = &m.topP
	}
	if m.topK > 0 && m.baseURL != openAIDefaultBaseURL {
		req.TopK = &m.topK
	}
	if m.maxTokens > 0 {
		req.MaxTokens = &m.maxTokens
	}
	return req
}

func (m *openAIChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	body, err := json.Marshal(m.buildRequest(input))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// 保留状态码与上游消息，弹性层依赖它们做失败分类。
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("empty choices in response")
	}

	return &schema.Message{
		Role:    schema.Assistant,
		Content: result.Choices[0].Message.Content,
	}, nil
}

func (m *openAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	// 非流式生成后包装为单元素流，满足接口即可。
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *openAIChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *m
	clone.tools = tools
	return &clone, nil
}

func toChatMessages(input []*schema.Message) []chatMessage {
	out := make([]chatMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		role := "user"
		switch msg.Role {
		case schema.System:
			role = "system"
		case schema.Assistant:
			role = "assistant"
		case schema.Tool:
			role = "tool"
		}
		out = append(out, chatMessage{Role: role, Content: msg.Content})
	}
	return out
}
