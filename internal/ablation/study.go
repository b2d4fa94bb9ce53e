package ablation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"github.com/wwwzy/DeskAgent/internal/agent"
	"github.com/wwwzy/DeskAgent/internal/storage"
)

const (
	defaultSampleSize = 30
	defaultWorkers    = 4
)

// ConfigBaseline 为单步对照系统在结果中的配置名。
const ConfigBaseline = "baseline"

// Config 为一次消融实验的参数。
type Config struct {
	// RunID 标识本次实验；为空时自动生成。
	RunID string
	// DatasetPath 为评测样本文件路径；为空时使用内置样本集。
	DatasetPath string
	// SampleSize 为每个配置评测的样本数；<=0 使用默认值。
	SampleSize int
	// Workers 为单配置内的并发执行数；<=0 使用默认值。
	Workers int
}

// Study 对五种系统配置逐一评测同一批样本并汇总指标。
//
// 四个图变体共享同一组步骤实现，第五个配置为单步对照系统。
// 单条样本的结果落库（失败样本也落库但不计入平均值），
// 汇总指标由上层打印或持久化。
type Study struct {
	handlers *agent.Handlers
	store    *storage.Storage
	log      *zap.Logger
}

func NewStudy(h *agent.Handlers, store *storage.Storage, logger *zap.Logger) (*Study, error) {
	if h == nil {
		return nil, errors.New("handlers are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Study{handlers: h, store: store, log: logger}, nil
}

// sampleOutcome 为单条样本的执行结果。
type sampleOutcome struct {
	response   string
	steps      int
	status     string
	escalated  bool
	confidence float64
	duration   time.Duration
	err        error
}

// runFunc 执行单条样本并返回结果。
type runFunc func(ctx context.Context, query string) sampleOutcome

// Run 依次评测全部配置并返回汇总报告。
func (s *Study) Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = defaultSampleSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}

	cases, err := LoadDataset(cfg.DatasetPath)
	if err != nil {
		return nil, err
	}
	if len(cases) > cfg.SampleSize {
		cases = cases[:cfg.SampleSize]
	}

	s.log.Info("ablation study started",
		zap.String("run_id", cfg.RunID),
		zap.Int("sample_size", len(cases)),
		zap.Int("workers", cfg.Workers))

	report := &Report{
		RunID:      cfg.RunID,
		SampleSize: len(cases),
		StartedAt:  time.Now(),
	}

	for _, name := range configNames() {
		run, err := s.configRunner(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("prepare configuration %s: %w", name, err)
		}

		metrics, results := s.evaluate(ctx, name, run, cases, cfg.Workers)
		for i := range results {
			results[i].RunID = cfg.RunID
		}
		if s.store != nil {
			if err := s.store.InsertAblationResults(ctx, results); err != nil {
				s.log.Warn("persist ablation results failed",
					zap.String("run_id", cfg.RunID),
					zap.String("config", name),
					zap.Error(err))
			}
		}
		report.Configs = append(report.Configs, metrics)

		s.log.Info("configuration evaluated",
			zap.String("config", name),
			zap.Duration("avg_time", metrics.AvgProcessingTime),
			zap.Float64("avg_agents", metrics.AvgAgentsUsed),
			zap.Int("failures", metrics.Failures))

		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}

	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

// configNames 返回评测配置的固定顺序：四个图变体加单步对照。
func configNames() []string {
	return append(agent.Variants(), ConfigBaseline)
}

// ConfigResult 为单条样本在指定配置下的执行结果。
type ConfigResult struct {
	Configuration string
	Response      string
	AgentsUsed    int
	Duration      time.Duration
}

// RunConfig 在指定配置下执行单条样本，用于交互式对比各配置的行为。
func (s *Study) RunConfig(ctx context.Context, name string, query string) (*ConfigResult, error) {
	known := false
	for _, n := range configNames() {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown configuration %q", name)
	}

	run, err := s.configRunner(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("prepare configuration %s: %w", name, err)
	}

	out := run(ctx, query)
	if out.err != nil {
		return nil, out.err
	}
	return &ConfigResult{
		Configuration: name,
		Response:      out.response,
		AgentsUsed:    out.steps,
		Duration:      out.duration,
	}, nil
}

// configRunner 为指定配置构造单样本执行函数。
func (s *Study) configRunner(ctx context.Context, name string) (runFunc, error) {
	if name == ConfigBaseline {
		b := agent.NewBaseline(s.handlers, 0, s.log)
		return func(ctx context.Context, query string) sampleOutcome {
			started := time.Now()
			res, err := b.Run(ctx, query, nil)
			if err != nil {
				return sampleOutcome{duration: time.Since(started), err: err}
			}
			return sampleOutcome{
				response:   res.Response,
				steps:      len(res.AgentSequence),
				status:     res.Status,
				escalated:  res.Escalated,
				confidence: res.Confidence,
				duration:   time.Since(started),
			}
		}, nil
	}

	graph, err := agent.BuildGraph(ctx, s.handlers, name)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, query string) sampleOutcome {
		started := time.Now()
		state, err := graph.Invoke(ctx, agent.NewState(uuid.NewString(), query, nil))
		if err != nil {
			return sampleOutcome{duration: time.Since(started), err: err}
		}
		return sampleOutcome{
			response:   state.FinalResponse,
			steps:      len(state.AgentSequence),
			status:     state.ResolutionStatus,
			escalated:  state.NeedsEscalation,
			confidence: state.Confidence,
			duration:   time.Since(started),
		}
	}, nil
}

// evaluate 用固定大小的 worker 池跑完一个配置的全部样本。
func (s *Study) evaluate(ctx context.Context, name string, run runFunc, cases []TestCase, workers int) (ConfigMetrics, []storage.AblationResult) {
	if workers > len(cases) {
		workers = len(cases)
	}
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]sampleOutcome, len(cases))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = run(ctx, cases[idx].Query)
			}
		}()
	}

dispatch:
	for i := range cases {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	results := make([]storage.AblationResult, 0, len(cases))
	metrics := ConfigMetrics{Configuration: name}

	for i, out := range outcomes {
		rec := storage.AblationResult{
			Config:     name,
			Query:      cases[i].Query,
			Steps:      out.steps,
			Success:    out.err == nil && out.duration > 0,
			DurationMS: out.duration.Milliseconds(),
		}
		if out.err != nil {
			rec.ErrorMessage = out.err.Error()
			s.log.Warn("sample failed",
				zap.String("config", name),
				zap.String("query", cases[i].Query),
				zap.Error(out.err))
		}
		if out.duration > 0 {
			results = append(results, rec)
		}

		metrics.observe(out)
	}

	metrics.finalize()
	return metrics, results
}
