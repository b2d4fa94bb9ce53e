package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"github.com/wwwzy/DeskAgent/internal/config"
)

// Generator 是各个处理步骤依赖的最小生成接口，便于测试时注入假实现。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateMessages(ctx context.Context, messages []*schema.Message) (string, error)
}

type candidate struct {
	name  string
	model model.BaseChatModel
}

// Client 是弹性调用层：按候选模型顺序尝试，每个模型内部按失败类别退避重试。
//
// 候选序列为 primary -> secondary -> 廉价兜底模型（去重）。失败类别：
//   - 限流：等待 RetryDelay * 1.5^attempt 后重试同一模型；
//   - 模型不可用（下线/不存在）：立即切换下一个候选；
//   - 其他错误：等待 LinearDelay * (attempt+1) 后重试。
//
// 所有候选耗尽后返回 *ExhaustedError。
type Client struct {
	candidates []candidate

	maxRetries        int
	retryDelay        time.Duration
	linearDelay       time.Duration
	delayBetweenCalls time.Duration

	log *zap.Logger

	// sleep 可注入，测试中替换为记录调用的假实现。
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Generator = (*Client)(nil)

// 每个提供商的兜底廉价模型。Ark 的模型名是账号内的 endpoint ID，无法内置通用值。
var defaultFallbacks = map[string][]string{
	"openai": {"gpt-4o-mini"},
}

func NewClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	names := candidateModels(cfg)
	if len(names) == 0 {
		return nil, fmt.Errorf("no candidate models configured")
	}

	cands := make([]candidate, 0, len(names))
	for _, name := range names {
		cm, err := newChatModel(ctx, cfg, name)
		if err != nil {
			return nil, fmt.Errorf("init chat model %s: %w", name, err)
		}
		cands = append(cands, candidate{name: name, model: cm})
	}

	c := &Client{
		candidates:        cands,
		maxRetries:        cfg.MaxRetries,
		retryDelay:        cfg.RetryDelay,
		linearDelay:       cfg.LinearDelay,
		delayBetweenCalls: cfg.DelayBetweenCalls,
		log:               logger,
		sleep:             sleepContext,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 3
	}
	if c.retryDelay <= 0 {
		c.retryDelay = 20 * time.Second
	}
	if c.linearDelay <= 0 {
		c.linearDelay = 10 * time.Second
	}
	return c, nil
}

// candidateModels 返回去重后的候选模型序列：primary、secondary、兜底模型。
func candidateModels(cfg config.LLMConfig) []string {
	fallbacks := cfg.FallbackModels
	if len(fallbacks) == 0 {
		fallbacks = defaultFallbacks[cfg.Provider]
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, 2+len(fallbacks))
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	add(cfg.PrimaryModel)
	add(cfg.SecondaryModel)
	for _, name := range fallbacks {
		add(name)
	}
	return out
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateMessages(ctx, []*schema.Message{schema.UserMessage(prompt)})
}

func (c *Client) GenerateMessages(ctx context.Context, messages []*schema.Message) (string, error) {
	var lastErr error
	var lastModel string

	for _, cand := range c.candidates {
	attempts:
		for attempt := 0; attempt < c.maxRetries; attempt++ {
			out, err := cand.model.Generate(ctx, messages)
			if err == nil {
				// 成功后固定节流，降低触发限流的概率。调用结果照常返回。
				if c.delayBetweenCalls > 0 {
					_ = c.sleep(ctx, c.delayBetweenCalls)
				}
				return out.Content, nil
			}

			lastErr = err
			lastModel = cand.name

			switch classifyFailure(err) {
			case failureUnavailable:
				c.log.Warn("model unavailable, switching candidate",
					zap.String("model", cand.name),
					zap.Error(err))
				break attempts

			case failureRateLimit:
				if attempt == c.maxRetries-1 {
					c.log.Warn("rate limit retries exhausted, switching candidate",
						zap.String("model", cand.name),
						zap.Int("attempts", c.maxRetries))
					break attempts
				}
				delay := time.Duration(float64(c.retryDelay) * math.Pow(1.5, float64(attempt)))
				c.log.Warn("rate limited, backing off",
					zap.String("model", cand.name),
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay))
				if err := c.sleep(ctx, delay); err != nil {
					return "", err
				}

			default:
				if attempt == c.maxRetries-1 {
					c.log.Warn("retries exhausted, switching candidate",
						zap.String("model", cand.name),
						zap.Int("attempts", c.maxRetries),
						zap.Error(err))
					break attempts
				}
				delay := c.linearDelay * time.Duration(attempt+1)
				c.log.Warn("call failed, retrying",
					zap.String("model", cand.name),
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay),
					zap.Error(err))
				if err := c.sleep(ctx, delay); err != nil {
					return "", err
				}
			}
		}
	}

	return "", &ExhaustedError{Model: lastModel, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
