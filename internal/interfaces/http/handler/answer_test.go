package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lokalomat/internal/application/answer"
	"lokalomat/internal/application/summary"
	"lokalomat/internal/config"
	"lokalomat/internal/infrastructure/genai"
	"lokalomat/internal/interfaces/http/dto"
)

// fakeCorpus 测试用语料库，兼做问答与就绪探测的上游
type fakeCorpus struct {
	docs    []genai.Document
	hits    map[string][]genai.RelevantChunk
	listErr error
}

func (f *fakeCorpus) ListCorpora(_ context.Context) ([]genai.Corpus, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []genai.Corpus{{Name: "corpora/test"}}, nil
}

func (f *fakeCorpus) ListDocuments(_ context.Context, _ string) ([]genai.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.docs, nil
}

func (f *fakeCorpus) QueryDocument(_ context.Context, documentName, _ string, _ int) ([]genai.RelevantChunk, error) {
	return f.hits[documentName], nil
}

// fakeGen 固定输出的摘要生成器
type fakeGen struct{}

func (fakeGen) GenerateContent(_ context.Context, _ string, _ string, _ genai.GenerateOptions) (string, error) {
	return "Die Partei fordert mehr Wohnraum.", nil
}

func newTestRouter(corpus *fakeCorpus) *gin.Engine {
	gin.SetMode(gin.TestMode)

	answerCfg := &config.AnswerConfig{
		Parties:        []string{"SPD", "CDU"},
		KRetrieve:      5,
		MaxQuotes:      5,
		SummaryWorkers: 2,
		SummaryTimeout: 5 * time.Second,
	}
	svc := answer.NewService(corpus, answerCfg, "corpora/test")
	summarizer := summary.NewSummarizer(fakeGen{}, answerCfg, "models/gemini-1.5-flash")

	r := gin.New()
	ah := NewAnswerHandler(svc, summarizer)
	ph := NewPartyHandler(svc)
	hh := NewHealthHandler(corpus)
	r.POST("/v1/answers", ah.Ask)
	r.GET("/v1/parties", ph.List)
	r.GET("/ready", hh.Ready)
	return r
}

func defaultCorpus() *fakeCorpus {
	return &fakeCorpus{
		docs: []genai.Document{
			{Name: "corpora/test/documents/spd", DisplayName: "SPD"},
		},
		hits: map[string][]genai.RelevantChunk{
			"corpora/test/documents/spd": {
				{
					ChunkRelevanceScore: 0.87654,
					Chunk: genai.Chunk{
						Data: genai.ChunkData{StringValue: "Mehr sozialer Wohnungsbau."},
						CustomMetadata: []genai.CustomMetadata{
							{Key: "section", StringValue: "Wohnen"},
						},
					},
				},
			},
		},
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAskEndToEnd(t *testing.T) {
	r := newTestRouter(defaultCorpus())

	w := doJSON(t, r, http.MethodPost, "/v1/answers",
		`{"question":"Wie steht die Partei zu Wohnraum?","parties":["SPD","Piraten"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response[dto.AskResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, "Wie steht die Partei zu Wohnraum?", resp.Data.Question)
	require.Len(t, resp.Data.Answers, 2)

	spd := resp.Data.Answers[0]
	assert.Equal(t, "SPD", spd.Party)
	assert.Equal(t, "ok", spd.Status)
	require.Len(t, spd.Quotes, 1)
	assert.Equal(t, "Wohnen", spd.Quotes[0].Section)
	assert.Equal(t, 0.877, spd.Quotes[0].Score)
	assert.Equal(t, "Die Partei fordert mehr Wohnraum.", spd.Summary)
	assert.Equal(t, "ok", spd.SummaryStatus)

	piraten := resp.Data.Answers[1]
	assert.Equal(t, "Piraten", piraten.Party)
	assert.Equal(t, "no_info", piraten.Status)
	assert.Contains(t, piraten.Message, "Piraten")
	assert.Empty(t, piraten.Summary)
}

func TestAskDefaultsToConfiguredParties(t *testing.T) {
	r := newTestRouter(defaultCorpus())

	w := doJSON(t, r, http.MethodPost, "/v1/answers", `{"question":"Wohnraum?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response[dto.AskResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Answers, 2)
	assert.Equal(t, "SPD", resp.Data.Answers[0].Party)
	assert.Equal(t, "CDU", resp.Data.Answers[1].Party)
}

func TestAskRejectsInvalidRequest(t *testing.T) {
	r := newTestRouter(defaultCorpus())

	// 缺少 question
	w := doJSON(t, r, http.MethodPost, "/v1/answers", `{"parties":["SPD"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// question 超长
	long := strings.Repeat("a", 501)
	w = doJSON(t, r, http.MethodPost, "/v1/answers", `{"question":"`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListParties(t *testing.T) {
	r := newTestRouter(defaultCorpus())

	w := doJSON(t, r, http.MethodGet, "/v1/parties", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response[dto.PartiesResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Parties, 2)
	assert.Equal(t, dto.PartyInfoResponse{Label: "SPD", Available: true}, resp.Data.Parties[0])
	assert.Equal(t, dto.PartyInfoResponse{Label: "CDU", Available: false}, resp.Data.Parties[1])
}

func TestReady(t *testing.T) {
	r := newTestRouter(defaultCorpus())
	w := doJSON(t, r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyUpstreamDown(t *testing.T) {
	corpus := defaultCorpus()
	corpus.listErr = &genai.APIError{StatusCode: 500, Endpoint: "corpora", Body: "backend down"}
	r := newTestRouter(corpus)

	w := doJSON(t, r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/parties", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
