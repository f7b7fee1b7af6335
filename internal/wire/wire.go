// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"lokalomat/internal/application/answer"
	"lokalomat/internal/application/ingest"
	"lokalomat/internal/application/summary"
	"lokalomat/internal/config"
	"lokalomat/internal/infrastructure/genai"
	"lokalomat/internal/interfaces/http/handler"
	"lokalomat/internal/interfaces/http/router"
)

// App 应用依赖容器
type App struct {
	GenAIClient *genai.Client
	AnswerSvc   *answer.Service
	Summarizer  *summary.Summarizer
	Router      *router.Router
}

// InitializeApp 初始化问答服务的全部依赖
func InitializeApp(_ context.Context, cfg *config.Config) (*App, func(), error) {
	client := genai.NewClient(&cfg.GenAI)

	answerSvc := answer.NewService(client, &cfg.Answer, cfg.GenAI.CorpusName)
	summarizer := summary.NewSummarizer(client, &cfg.Answer, cfg.GenAI.GenModel)

	handlers := router.Handlers{
		Health: handler.NewHealthHandler(client),
		Answer: handler.NewAnswerHandler(answerSvc, summarizer),
		Party:  handler.NewPartyHandler(answerSvc),
	}

	app := &App{
		GenAIClient: client,
		AnswerSvc:   answerSvc,
		Summarizer:  summarizer,
		Router:      router.New(cfg, handlers),
	}

	cleanup := func() {}
	return app, cleanup, nil
}

// InitializeLoader 初始化语料导入器
func InitializeLoader(_ context.Context, cfg *config.Config) *ingest.Loader {
	client := genai.NewClient(&cfg.GenAI)
	return ingest.NewLoader(client, cfg.Ingest, cfg.GenAI.GenModel)
}
