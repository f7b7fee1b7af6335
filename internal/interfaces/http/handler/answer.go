// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"lokalomat/internal/application/answer"
	"lokalomat/internal/application/summary"
	"lokalomat/internal/interfaces/http/dto"
	"lokalomat/pkg/logger"
)

// AnswerHandler 问答处理器
type AnswerHandler struct {
	svc        *answer.Service
	summarizer *summary.Summarizer
}

// NewAnswerHandler 创建问答处理器
func NewAnswerHandler(svc *answer.Service, summarizer *summary.Summarizer) *AnswerHandler {
	return &AnswerHandler{
		svc:        svc,
		summarizer: summarizer,
	}
}

// Ask 对所选党派回答一个问题
// @Summary 按党派回答问题
// @Description 对每个党派检索党纲段落、组装引用并生成受约束的摘要
// @Tags Answer
// @Accept json
// @Produce json
// @Param body body dto.AskRequest true "提问请求"
// @Success 200 {object} dto.Response[dto.AskResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/answers [post]
func (h *AnswerHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	parties := req.Parties
	if len(parties) == 0 {
		parties = h.svc.Parties()
	}

	ctx := c.Request.Context()
	logger.Info(ctx, "answering question", "parties", len(parties))

	answers := h.svc.AnswerAll(ctx, req.Question, parties)
	h.summarizer.SummarizeAll(ctx, req.Question, answers)

	dto.Success(c, dto.NewAskResponse(req.Question, answers))
}
