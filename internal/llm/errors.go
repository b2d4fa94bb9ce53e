package llm

import (
	"fmt"
	"strings"
)

// ExhaustedError 表示所有候选模型的重试均已失败。
type ExhaustedError struct {
	// Model 为最后一个尝试的模型名。
	Model string
	// Err 为最后一次失败的原始错误。
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all candidate models exhausted (last tried %s): %v", e.Model, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type failureClass int

const (
	// failureOther 为默认类别：线性退避后重试。
	failureOther failureClass = iota
	// failureRateLimit 为限流/配额类错误：指数退避后在同一模型上重试。
	failureRateLimit
	// failureUnavailable 为模型下线/不存在类错误：立即切换下一个候选模型。
	failureUnavailable
)

var rateLimitMarkers = []string{
	"rate limit",
	"rate_limit",
	"429",
	"quota",
	"resource_exhausted",
	"too many requests",
}

var unavailableMarkers = []string{
	"decommissioned",
	"not found",
	"does not exist",
	"404",
}

// classifyFailure 基于错误文本做启发式分类。
// 提供商 SDK 的错误类型各不相同，但限流/下线的关键字高度一致。
func classifyFailure(err error) failureClass {
	if err == nil {
		return failureOther
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return failureRateLimit
		}
	}
	for _, marker := range unavailableMarkers {
		if strings.Contains(msg, marker) {
			return failureUnavailable
		}
	}
	return failureOther
}
