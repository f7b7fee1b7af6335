package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lokalomat/internal/infrastructure/genai"
)

// fakeCorpusClient 测试用的内存语料库
type fakeCorpusClient struct {
	docs    []genai.Document
	hits    map[string][]genai.RelevantChunk
	listErr error
	qryErr  map[string]error
}

func (f *fakeCorpusClient) ListDocuments(_ context.Context, _ string) ([]genai.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.docs, nil
}

func (f *fakeCorpusClient) QueryDocument(_ context.Context, documentName, _ string, _ int) ([]genai.RelevantChunk, error) {
	if err := f.qryErr[documentName]; err != nil {
		return nil, err
	}
	return f.hits[documentName], nil
}

func TestNormalizeLabel(t *testing.T) {
	// "Grüne"：NFC 组合形式与 NFD 分解形式归一化后相等
	composed := "Grüne"
	decomposed := "Grüne"
	assert.Equal(t, NormalizeLabel(composed), NormalizeLabel(decomposed))

	assert.Equal(t, "SPD", NormalizeLabel("  SPD\n"))
	// 幂等
	assert.Equal(t, NormalizeLabel(composed), NormalizeLabel(NormalizeLabel(composed)))
	// 大小写不被改写
	assert.NotEqual(t, NormalizeLabel("spd"), NormalizeLabel("SPD"))
}

func TestResolve(t *testing.T) {
	client := &fakeCorpusClient{
		docs: []genai.Document{
			{Name: "corpora/test/documents/doc-1", DisplayName: "SPD"},
			{Name: "corpora/test/documents/doc-2", DisplayName: "Grüne"},
		},
	}
	r := NewResolver(client, "corpora/test")

	doc, err := r.Resolve(context.Background(), "SPD")
	require.NoError(t, err)
	assert.Equal(t, "corpora/test/documents/doc-1", doc.Name)

	// 分解形式的输入命中组合形式的显示名
	doc, err = r.Resolve(context.Background(), "Grüne")
	require.NoError(t, err)
	assert.Equal(t, "corpora/test/documents/doc-2", doc.Name)

	_, err = r.Resolve(context.Background(), "Piraten")
	assert.ErrorIs(t, err, ErrUnknownParty)
}

func TestResolveListFailure(t *testing.T) {
	client := &fakeCorpusClient{listErr: errors.New("upstream unavailable")}
	r := NewResolver(client, "corpora/test")

	_, err := r.Resolve(context.Background(), "SPD")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownParty)
}

func TestKnownLabels(t *testing.T) {
	client := &fakeCorpusClient{
		docs: []genai.Document{
			{Name: "corpora/test/documents/doc-1", DisplayName: " SPD "},
		},
	}
	r := NewResolver(client, "corpora/test")

	known, err := r.KnownLabels(context.Background())
	require.NoError(t, err)
	assert.True(t, known["SPD"])
	assert.False(t, known["CDU"])
}
