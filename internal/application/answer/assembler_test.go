package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lokalomat/internal/domain/entity"
	"lokalomat/internal/infrastructure/genai"
)

func hit(section, text string, score float64) genai.RelevantChunk {
	return genai.RelevantChunk{
		ChunkRelevanceScore: score,
		Chunk: genai.Chunk{
			Data: genai.ChunkData{StringValue: text},
			CustomMetadata: []genai.CustomMetadata{
				{Key: "party", StringValue: "SPD"},
				{Key: "section", StringValue: section},
			},
		},
	}
}

func TestAssembleOK(t *testing.T) {
	a := NewAssembler(5, 0)
	ans := a.Assemble("SPD", []genai.RelevantChunk{
		hit("Wohnen", "Wir fordern 1000 neue Wohnungen pro Jahr.", 0.87654),
		hit("Verkehr", "Der ÖPNV soll ausgebaut werden.", 0.71),
	})

	require.Equal(t, entity.AnswerStatusOK, ans.Status)
	require.Len(t, ans.Quotes, 2)
	// 命中顺序原样保留，得分保留 3 位小数
	assert.Equal(t, "Wohnen", ans.Quotes[0].Section)
	assert.Equal(t, 0.877, ans.Quotes[0].Score)
	assert.Equal(t, "Wir fordern 1000 neue Wohnungen pro Jahr.", ans.Quotes[0].Quote)
	assert.Equal(t, "Verkehr", ans.Quotes[1].Section)
}

func TestAssembleSkipsEmptyChunks(t *testing.T) {
	a := NewAssembler(5, 0)
	ans := a.Assemble("SPD", []genai.RelevantChunk{
		hit("Wohnen", "   \n\t  ", 0.95),
		hit("Wohnen", "", 0.9),
		hit("Verkehr", "Radwege ausbauen.", 0.8),
	})

	require.Equal(t, entity.AnswerStatusOK, ans.Status)
	require.Len(t, ans.Quotes, 1)
	assert.Equal(t, "Radwege ausbauen.", ans.Quotes[0].Quote)
}

func TestAssembleCapsQuotes(t *testing.T) {
	a := NewAssembler(2, 0)
	ans := a.Assemble("SPD", []genai.RelevantChunk{
		hit("A", "erste Passage", 0.9),
		hit("B", "zweite Passage", 0.8),
		hit("C", "dritte Passage", 0.7),
	})

	require.Len(t, ans.Quotes, 2)
	assert.Equal(t, "erste Passage", ans.Quotes[0].Quote)
	assert.Equal(t, "zweite Passage", ans.Quotes[1].Quote)
}

func TestAssembleMinScore(t *testing.T) {
	a := NewAssembler(5, 0.5)
	ans := a.Assemble("SPD", []genai.RelevantChunk{
		hit("A", "relevante Passage", 0.8),
		hit("B", "kaum relevante Passage", 0.3),
	})

	require.Len(t, ans.Quotes, 1)
	assert.Equal(t, "relevante Passage", ans.Quotes[0].Quote)
}

func TestAssembleNoInfo(t *testing.T) {
	a := NewAssembler(5, 0)

	ans := a.Assemble("SPD", nil)
	assert.Equal(t, entity.AnswerStatusNoInfo, ans.Status)
	assert.Contains(t, ans.Message, "SPD")
	assert.Empty(t, ans.Quotes)

	// 全部命中都是空白时同样是 no_info
	ans = a.Assemble("CDU", []genai.RelevantChunk{hit("A", "  ", 0.9)})
	assert.Equal(t, entity.AnswerStatusNoInfo, ans.Status)
	assert.Contains(t, ans.Message, "CDU")
}
