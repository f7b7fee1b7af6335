package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lokalomat/internal/config"
	"lokalomat/internal/infrastructure/genai"
	apperrors "lokalomat/pkg/errors"
)

// fakeCorpusAdmin 测试用的内存语料库管理端
type fakeCorpusAdmin struct {
	corpora []genai.Corpus
	docs    map[string][]genai.Document

	createCorpusErr error
	// rejectBatch 判定一个批次是否被拒，nil 表示全部接受
	rejectBatch func(chunks []genai.Chunk) error

	batches  [][]genai.Chunk
	uploaded map[string][]genai.Chunk
	tokens   map[string]int
}

func newFakeAdmin() *fakeCorpusAdmin {
	return &fakeCorpusAdmin{
		docs:     make(map[string][]genai.Document),
		uploaded: make(map[string][]genai.Chunk),
		tokens:   make(map[string]int),
	}
}

func (f *fakeCorpusAdmin) ListCorpora(_ context.Context) ([]genai.Corpus, error) {
	return f.corpora, nil
}

func (f *fakeCorpusAdmin) CreateCorpus(_ context.Context, displayName, corpusID string) (*genai.Corpus, error) {
	if f.createCorpusErr != nil {
		return nil, f.createCorpusErr
	}
	name := "corpora/" + corpusID
	if corpusID == "" {
		name = "corpora/generated-id"
	}
	c := genai.Corpus{Name: name, DisplayName: displayName}
	f.corpora = append(f.corpora, c)
	return &c, nil
}

func (f *fakeCorpusAdmin) ListDocuments(_ context.Context, corpusName string) ([]genai.Document, error) {
	return f.docs[corpusName], nil
}

func (f *fakeCorpusAdmin) CreateDocument(_ context.Context, corpusName, displayName string, metadata []genai.CustomMetadata) (*genai.Document, error) {
	d := genai.Document{
		Name:           corpusName + "/documents/doc-" + displayName,
		DisplayName:    displayName,
		CustomMetadata: metadata,
	}
	f.docs[corpusName] = append(f.docs[corpusName], d)
	return &d, nil
}

func (f *fakeCorpusAdmin) BatchCreateChunks(_ context.Context, documentName string, chunks []genai.Chunk) error {
	f.batches = append(f.batches, chunks)
	if f.rejectBatch != nil {
		if err := f.rejectBatch(chunks); err != nil {
			return err
		}
	}
	f.uploaded[documentName] = append(f.uploaded[documentName], chunks...)
	return nil
}

func (f *fakeCorpusAdmin) CountTokens(_ context.Context, _ string, text string) (int, error) {
	if n, ok := f.tokens[text]; ok {
		return n, nil
	}
	return len([]rune(text)) / 4, nil
}

func writeRecords(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		CorpusDisplayName: "Lokalomat Bremen 2023",
		CorpusID:          "lokalomat-bremen",
		City:              "Bremen",
		Year:              "2023",
		BatchSize:         100,
	}
}

func TestLoadCorpus(t *testing.T) {
	admin := newFakeAdmin()
	path := writeRecords(t,
		`{"party":"SPD","section":"Wohnen","text":"Mehr sozialer Wohnungsbau."}`,
		`{"party":"SPD","section":"Verkehr","text":"ÖPNV ausbauen."}`,
		``,
		`{"party":"CDU","section":"Wohnen","text":"Eigentum fördern."}`,
	)

	l := NewLoader(admin, testIngestConfig(), "")
	corpusName, err := l.LoadCorpus(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "corpora/lokalomat-bremen", corpusName)

	// 每个党派一个文档
	require.Len(t, admin.docs[corpusName], 2)
	assert.Equal(t, "SPD", admin.docs[corpusName][0].DisplayName)
	assert.Equal(t, "CDU", admin.docs[corpusName][1].DisplayName)

	spdDoc := admin.docs[corpusName][0].Name
	require.Len(t, admin.uploaded[spdDoc], 2)

	// 一条记录一个 chunk，元数据携带党派、章节、城市与年份
	chunk := admin.uploaded[spdDoc][0]
	assert.Equal(t, "Mehr sozialer Wohnungsbau.", chunk.Data.StringValue)
	assert.Equal(t, "SPD", chunk.Metadata("party"))
	assert.Equal(t, "Wohnen", chunk.Metadata("section"))
	assert.Equal(t, "Bremen", chunk.Metadata("city"))
	assert.Equal(t, "2023", chunk.Metadata("year"))
}

func TestLoadCorpusNormalizesToNFC(t *testing.T) {
	admin := newFakeAdmin()
	// 分解形式的 ü (u + U+0308)
	path := writeRecords(t,
		`{"party":"Grüne","section":"Grünflächen","text":"Mehr Stadtgrün."}`,
	)

	l := NewLoader(admin, testIngestConfig(), "")
	corpusName, err := l.LoadCorpus(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, admin.docs[corpusName], 1)
	assert.Equal(t, "Grüne", admin.docs[corpusName][0].DisplayName)

	doc := admin.docs[corpusName][0].Name
	require.Len(t, admin.uploaded[doc], 1)
	assert.Equal(t, "Mehr Stadtgrün.", admin.uploaded[doc][0].Data.StringValue)
	assert.Equal(t, "Grünflächen", admin.uploaded[doc][0].Metadata("section"))
}

func TestLoadCorpusBatching(t *testing.T) {
	admin := newFakeAdmin()
	records := make([]string, 0, 250)
	for i := 0; i < 250; i++ {
		records = append(records, `{"party":"SPD","section":"Wohnen","text":"Passage."}`)
	}
	path := writeRecords(t, records...)

	l := NewLoader(admin, testIngestConfig(), "")
	_, err := l.LoadCorpus(context.Background(), path)
	require.NoError(t, err)

	// 250 条按 100 一批分三批上传
	require.Len(t, admin.batches, 3)
	assert.Len(t, admin.batches[0], 100)
	assert.Len(t, admin.batches[1], 100)
	assert.Len(t, admin.batches[2], 50)
}

func TestEnsureCorpusReconcilesConflict(t *testing.T) {
	admin := newFakeAdmin()
	admin.corpora = []genai.Corpus{
		{Name: "corpora/lokalomat-bremen", DisplayName: "Lokalomat Bremen 2023"},
	}
	admin.createCorpusErr = &genai.APIError{StatusCode: 409, Endpoint: "corpora"}

	path := writeRecords(t, `{"party":"SPD","section":"Wohnen","text":"Passage."}`)
	l := NewLoader(admin, testIngestConfig(), "")

	corpusName, err := l.LoadCorpus(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "corpora/lokalomat-bremen", corpusName)
}

func TestEnsureCorpusConflictWithoutMatchIsFatal(t *testing.T) {
	admin := newFakeAdmin()
	admin.createCorpusErr = &genai.APIError{StatusCode: 409, Endpoint: "corpora"}

	path := writeRecords(t, `{"party":"SPD","section":"Wohnen","text":"Passage."}`)
	l := NewLoader(admin, testIngestConfig(), "")

	_, err := l.LoadCorpus(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCorpusConflict, apperrors.AsAppError(err).Code)
}

func TestUploadRejectionDiagnosesAndReturnsOriginalError(t *testing.T) {
	admin := newFakeAdmin()
	rejection := &genai.APIError{StatusCode: 400, Endpoint: "batchCreate", Body: "invalid chunk"}
	admin.rejectBatch = func(chunks []genai.Chunk) error {
		for _, c := range chunks {
			if c.Data.StringValue == "" {
				return rejection
			}
		}
		return nil
	}

	path := writeRecords(t,
		`{"party":"SPD","section":"Wohnen","text":"Erste Passage."}`,
		`{"party":"SPD","section":"Wohnen","text":"Zweite Passage."}`,
		`{"party":"SPD","section":"Wohnen","text":""}`,
		`{"party":"SPD","section":"Wohnen","text":"Vierte Passage."}`,
	)

	l := NewLoader(admin, testIngestConfig(), "")
	_, err := l.LoadCorpus(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeIngestRejected, apperrors.AsAppError(err).Code)
	// 诊断不吞掉原始错误
	var apiErr *genai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.StatusCode)
}

func TestDiagnoseBatchPinpointsEmptyItem(t *testing.T) {
	admin := newFakeAdmin()
	l := NewLoader(admin, testIngestConfig(), "")

	batch := []genai.Chunk{
		{Data: genai.ChunkData{StringValue: "Erste Passage."}},
		{Data: genai.ChunkData{StringValue: "Zweite Passage."}},
		{Data: genai.ChunkData{StringValue: "   "}},
		{Data: genai.ChunkData{StringValue: "Vierte Passage."}},
	}
	results := l.DiagnoseBatch(context.Background(), "corpora/c/documents/d", 100, batch)

	require.Len(t, results, 4)
	assert.True(t, results[0].Accepted)
	assert.True(t, results[1].Accepted)
	assert.True(t, results[3].Accepted)

	// 正是第三条（全局下标 102）被判为空白
	assert.False(t, results[2].Accepted)
	assert.Equal(t, 102, results[2].Index)
	assert.Contains(t, results[2].Reason, "empty/whitespace-only")

	// 空白条目不做单条重提，其余三条各重提一次
	assert.Len(t, admin.batches, 3)
}

func TestDiagnoseBatchFlagsControlChars(t *testing.T) {
	admin := newFakeAdmin()
	admin.rejectBatch = func(chunks []genai.Chunk) error {
		return &genai.APIError{StatusCode: 400, Endpoint: "batchCreate", Body: "bad payload"}
	}
	l := NewLoader(admin, testIngestConfig(), "")

	batch := []genai.Chunk{
		{Data: genai.ChunkData{StringValue: "Text mit \x01 Steuerzeichen"}},
	}
	results := l.DiagnoseBatch(context.Background(), "corpora/c/documents/d", 0, batch)

	require.Len(t, results, 1)
	assert.False(t, results[0].Accepted)
	assert.Contains(t, results[0].Reason, "control chars")
	assert.Contains(t, results[0].Reason, "0x1")
}

func TestControlChars(t *testing.T) {
	// tab、LF、CR 是允许的
	assert.Empty(t, controlChars("a\tb\nc\rd"))
	assert.Equal(t, []rune{0x01, 0x1f}, controlChars("a\x01b\x1fc"))
}
