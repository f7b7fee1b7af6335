// Package answer 实现按党派的检索与回答组装流水线
package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"lokalomat/internal/config"
	"lokalomat/internal/domain/entity"
	"lokalomat/pkg/logger"
	"lokalomat/pkg/metrics"
)

// fanoutLimit 扇出并发上限
const fanoutLimit = 8

// Service 按党派扇出 解析 -> 检索 -> 组装 的编排服务
type Service struct {
	resolver  *Resolver
	retriever *Retriever
	assembler *Assembler

	corpusName string
	kRetrieve  int
	parties    []string
}

// NewService 创建问答编排服务
func NewService(client CorpusClient, cfg *config.AnswerConfig, corpusName string) *Service {
	kRetrieve := cfg.KRetrieve
	if kRetrieve <= 0 {
		kRetrieve = 5
	}
	return &Service{
		resolver:   NewResolver(client, corpusName),
		retriever:  NewRetriever(client),
		assembler:  NewAssembler(cfg.MaxQuotes, cfg.MinScore),
		corpusName: corpusName,
		kRetrieve:  kRetrieve,
		parties:    cfg.Parties,
	}
}

// Parties 返回配置的党派标签全集
func (s *Service) Parties() []string {
	return s.parties
}

// PartyInfo 配置中的党派标签及其是否有对应党纲文档
type PartyInfo struct {
	Label     string
	Available bool
}

// ListParties 返回配置的党派全集并标记语料库中是否存在对应文档
func (s *Service) ListParties(ctx context.Context) ([]PartyInfo, error) {
	known, err := s.resolver.KnownLabels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PartyInfo, 0, len(s.parties))
	for _, label := range s.parties {
		out = append(out, PartyInfo{
			Label:     label,
			Available: known[NormalizeLabel(label)],
		})
	}
	return out, nil
}

// AnswerAll 为每个党派生成一条回答，输出顺序与输入标签顺序一致。
// 单个党派的解析或检索失败只影响该党派的条目，不中断整个批次。
func (s *Service) AnswerAll(ctx context.Context, question string, parties []string) []*entity.PartyAnswer {
	answers := make([]*entity.PartyAnswer, len(parties))

	var g errgroup.Group
	g.SetLimit(fanoutLimit)
	for i, party := range parties {
		i, party := i, party
		g.Go(func() error {
			answers[i] = s.answerOne(ctx, question, party)
			return nil
		})
	}
	// worker 从不返回错误，失败已被隔离到各自的槽位
	_ = g.Wait()

	return answers
}

// answerOne 处理单个党派：解析文档、检索段落、组装回答
func (s *Service) answerOne(ctx context.Context, question, party string) *entity.PartyAnswer {
	ctx = logger.WithContext(ctx, logger.PartyKey, party)

	doc, err := s.resolver.Resolve(ctx, party)
	if err != nil {
		if errors.Is(err, ErrUnknownParty) {
			logger.Debug(ctx, "party has no document in corpus")
			return entity.NewNoInfoAnswer(party, fmt.Sprintf(msgUnknownParty, party))
		}
		logger.Error(ctx, "failed to resolve party document", err)
		metrics.RetrievalTotal.WithLabelValues(party, "error").Inc()
		return entity.NewErrorAnswer(party, fmt.Sprintf(msgRetrievalErr, party))
	}

	start := time.Now()
	hits, err := s.retriever.Query(ctx, doc.Name, question, s.kRetrieve)
	metrics.RetrievalDuration.WithLabelValues(party).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error(ctx, "passage retrieval failed", err, "document", doc.Name)
		metrics.RetrievalTotal.WithLabelValues(party, "error").Inc()
		return entity.NewErrorAnswer(party, fmt.Sprintf(msgRetrievalErr, party))
	}
	metrics.RetrievalTotal.WithLabelValues(party, "ok").Inc()

	return s.assembler.Assemble(party, hits)
}
