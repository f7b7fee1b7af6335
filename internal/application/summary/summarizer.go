// Package summary 基于引文生成受约束的党派立场摘要
package summary

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"lokalomat/internal/config"
	"lokalomat/internal/domain/entity"
	"lokalomat/internal/infrastructure/genai"
	"lokalomat/pkg/logger"
	"lokalomat/pkg/metrics"
)

// maxWorkers 摘要并发上限，保护限流的上游 API
const maxWorkers = 8

// Generator 定义应用层对生成模型的最小依赖（port）
type Generator interface {
	GenerateContent(ctx context.Context, model, prompt string, opts genai.GenerateOptions) (string, error)
}

// Summarizer 受 grounding 约束的摘要生成器
type Summarizer struct {
	gen   Generator
	model string

	temperature     float64
	maxOutputTokens int
	timeout         time.Duration
	workers         int
}

// NewSummarizer 创建摘要生成器
func NewSummarizer(gen Generator, cfg *config.AnswerConfig, model string) *Summarizer {
	workers := cfg.SummaryWorkers
	if workers <= 0 || workers > maxWorkers {
		workers = maxWorkers
	}
	timeout := cfg.SummaryTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Summarizer{
		gen:             gen,
		model:           model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		timeout:         timeout,
		workers:         workers,
	}
}

// Summarize 基于引文生成一段摘要。引文为空时返回空串（防御性契约，
// 组装阶段的不变量保证 ok 回答总带引文）。
func (s *Summarizer) Summarize(ctx context.Context, question string, quotes []entity.Quote) (string, error) {
	if len(quotes) == 0 {
		return "", nil
	}

	prompt := BuildPrompt(question, quotes)
	return s.gen.GenerateContent(ctx, s.model, prompt, genai.GenerateOptions{
		Temperature:     s.temperature,
		MaxOutputTokens: s.maxOutputTokens,
	})
}

// SummarizeAll 为所有带引文的 ok 回答并发生成摘要，并发数为
// min(待摘要党派数, workers)。每个 worker 只回写自己的槽位，
// 输出顺序与输入一致；单个党派的失败只标记该党派的回答。
func (s *Summarizer) SummarizeAll(ctx context.Context, question string, answers []*entity.PartyAnswer) {
	var eligible []int
	for i, a := range answers {
		if a.HasQuotes() {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return
	}

	workers := s.workers
	if len(eligible) < workers {
		workers = len(eligible)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, idx := range eligible {
		idx := idx
		g.Go(func() error {
			s.summarizeSlot(ctx, question, answers[idx])
			return nil
		})
	}
	// worker 从不返回错误，失败已写入对应槽位
	_ = g.Wait()
}

// summarizeSlot 为单个回答生成摘要并就地写回，失败时记录错误标记
func (s *Summarizer) summarizeSlot(ctx context.Context, question string, a *entity.PartyAnswer) {
	ctx = logger.WithContext(ctx, logger.PartyKey, a.Party)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.Summarize(callCtx, question, a.Quotes)
	metrics.SummaryDuration.WithLabelValues(a.Party).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error(ctx, "summarization failed", err)
		metrics.SummaryTotal.WithLabelValues(a.Party, "error").Inc()
		a.SummaryStatus = entity.SummaryStatusError
		a.SummaryError = err.Error()
		return
	}

	metrics.SummaryTotal.WithLabelValues(a.Party, "ok").Inc()
	a.Summary = text
	a.SummaryStatus = entity.SummaryStatusOK
}
