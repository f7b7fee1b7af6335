// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"lokalomat/internal/application/answer"
	"lokalomat/internal/interfaces/http/dto"
	"lokalomat/pkg/logger"
)

// PartyHandler 党派列表处理器
type PartyHandler struct {
	svc *answer.Service
}

// NewPartyHandler 创建党派列表处理器
func NewPartyHandler(svc *answer.Service) *PartyHandler {
	return &PartyHandler{svc: svc}
}

// List 列出配置的党派及其党纲是否可查
// @Summary 党派列表
// @Tags Party
// @Produce json
// @Success 200 {object} dto.Response[dto.PartiesResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/parties [get]
func (h *PartyHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	infos, err := h.svc.ListParties(ctx)
	if err != nil {
		logger.Error(ctx, "failed to list parties", err)
		dto.ServiceUnavailable(c, "corpus service unavailable")
		return
	}

	resp := &dto.PartiesResponse{}
	for _, info := range infos {
		resp.Parties = append(resp.Parties, dto.PartyInfoResponse{
			Label:     info.Label,
			Available: info.Available,
		})
	}
	dto.Success(c, resp)
}
