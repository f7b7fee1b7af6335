package answer

import (
	"fmt"
	"strings"

	"lokalomat/internal/domain/entity"
	"lokalomat/internal/infrastructure/genai"
)

const (
	// metadataKeySection chunk 元数据中的章节键
	metadataKeySection = "section"
)

// 用户可读的固定说明文案
const (
	msgNoPassages   = "Im Programm von %s wurden keine passenden Passagen gefunden."
	msgUnknownParty = "Für %s ist kein Parteiprogramm hinterlegt."
	msgRetrievalErr = "Die Suche im Programm von %s ist fehlgeschlagen."
)

// Assembler 将原始命中转换为有界、格式良好的党派回答
type Assembler struct {
	// MaxQuotes 单个回答保留的引用上限
	MaxQuotes int
	// MinScore 相关度下限，0 表示不过滤（默认策略：召回优先，
	// 精度交给摘要阶段的 grounding 约束）
	MinScore float64
}

// NewAssembler 创建回答组装器
func NewAssembler(maxQuotes int, minScore float64) *Assembler {
	if maxQuotes <= 0 {
		maxQuotes = 5
	}
	return &Assembler{
		MaxQuotes: maxQuotes,
		MinScore:  minScore,
	}
}

// Assemble 按命中顺序（假定相关度降序，不重排）提取引用：
// 跳过空白 chunk，得分四舍五入到 3 位小数，凑满 MaxQuotes 即停。
// 一条引用都没有时返回 no_info 回答。
func (a *Assembler) Assemble(party string, hits []genai.RelevantChunk) *entity.PartyAnswer {
	quotes := make([]entity.Quote, 0, a.MaxQuotes)
	for i := range hits {
		if len(quotes) >= a.MaxQuotes {
			break
		}
		hit := &hits[i]
		text := hit.Chunk.Data.StringValue
		if strings.TrimSpace(text) == "" {
			continue
		}
		if a.MinScore > 0 && hit.ChunkRelevanceScore < a.MinScore {
			continue
		}
		section := hit.Chunk.Metadata(metadataKeySection)
		quotes = append(quotes, entity.NewQuote(section, text, hit.ChunkRelevanceScore))
	}

	if len(quotes) == 0 {
		return entity.NewNoInfoAnswer(party, fmt.Sprintf(msgNoPassages, party))
	}

	ans, err := entity.NewOKAnswer(party, quotes)
	if err != nil {
		// len(quotes) > 0 时不可达
		return entity.NewNoInfoAnswer(party, fmt.Sprintf(msgNoPassages, party))
	}
	return ans
}
