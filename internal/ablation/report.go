package ablation

import (
	"fmt"
	"strings"
	"time"

	"github.com/wwwzy/DeskAgent/internal/agent"
)

// ConfigMetrics 为单个配置在全部样本上的汇总指标。
//
// 平均值只统计成功样本；失败样本单独计数。CSAT 为模拟打分：
// 基准 3 分，解决 +1.5、部分解决 +0.5、升级 -1，再加置信度加成，
// 最终裁剪到 1-5 区间。所有配置使用同一套公式。
type ConfigMetrics struct {
	Configuration     string
	AvgProcessingTime time.Duration
	AvgAgentsUsed     float64
	ResolutionRate    float64
	EscalationRate    float64
	CSATScore         float64
	TotalQueries      int
	Failures          int

	totalDuration time.Duration
	totalSteps    int
	resolved      int
	escalated     int
	csatSum       float64
}

func (m *ConfigMetrics) observe(out sampleOutcome) {
	if out.err != nil {
		m.Failures++
		return
	}
	if out.duration <= 0 {
		// 上下文取消导致未执行的样本，不计入任何统计。
		return
	}

	m.TotalQueries++
	m.totalDuration += out.duration
	m.totalSteps += out.steps

	if out.escalated {
		m.escalated++
	} else if out.status == agent.StatusResolved || out.status == agent.StatusPartial {
		m.resolved++
	}

	score := 3.0
	switch out.status {
	case agent.StatusResolved:
		score += 1.5
	case agent.StatusPartial:
		score += 0.5
	}
	score += out.confidence * 0.5
	if out.escalated {
		score -= 1.0
	}
	if score < 1.0 {
		score = 1.0
	}
	if score > 5.0 {
		score = 5.0
	}
	m.csatSum += score
}

func (m *ConfigMetrics) finalize() {
	if m.TotalQueries == 0 {
		return
	}
	n := float64(m.TotalQueries)
	m.AvgProcessingTime = m.totalDuration / time.Duration(m.TotalQueries)
	m.AvgAgentsUsed = float64(m.totalSteps) / n
	m.ResolutionRate = float64(m.resolved) / n * 100
	m.EscalationRate = float64(m.escalated) / n * 100
	m.CSATScore = m.csatSum / n
}

// Report 为一次完整消融实验的结果。
type Report struct {
	RunID      string
	SampleSize int
	StartedAt  time.Time
	Duration   time.Duration
	Configs    []ConfigMetrics
}

// Config 按配置名查找汇总指标。
func (r *Report) Config(name string) (ConfigMetrics, bool) {
	for _, m := range r.Configs {
		if m.Configuration == name {
			return m, true
		}
	}
	return ConfigMetrics{}, false
}

// Format 渲染对齐的结果表格与影响分析，供命令行输出。
func (r *Report) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Ablation study %s (%d samples, %s)\n\n", r.RunID, r.SampleSize, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "%-14s %-14s %-12s %-12s %-12s %-8s %-9s\n",
		"Configuration", "Avg Time", "Avg Agents", "Resolved", "Escalated", "CSAT", "Failures")
	b.WriteString(strings.Repeat("-", 84) + "\n")

	for _, m := range r.Configs {
		fmt.Fprintf(&b, "%-14s %-14s %-12.1f %-11.1f%% %-11.1f%% %-8.2f %-9d\n",
			m.Configuration,
			m.AvgProcessingTime.Round(time.Millisecond),
			m.AvgAgentsUsed,
			m.ResolutionRate,
			m.EscalationRate,
			m.CSATScore,
			m.Failures)
	}
	b.WriteString(strings.Repeat("-", 84) + "\n")

	if full, ok := r.Config(agent.VariantFull); ok {
		if noFollowup, ok := r.Config(agent.VariantNoFollowup); ok {
			diff := full.AvgProcessingTime - noFollowup.AvgProcessingTime
			fmt.Fprintf(&b, "Follow-up step adds %s average processing time.\n", diff.Round(time.Millisecond))
		}
		if baseline, ok := r.Config(ConfigBaseline); ok && baseline.AvgProcessingTime > 0 {
			delta := float64(baseline.AvgProcessingTime-full.AvgProcessingTime) / float64(baseline.AvgProcessingTime) * 100
			fmt.Fprintf(&b, "Multi-step vs single-step: %+.1f%% time difference.\n", delta)
		}
	}

	return b.String()
}
