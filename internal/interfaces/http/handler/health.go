// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lokalomat/internal/infrastructure/genai"
)

// upstreamPinger 就绪检查对上游语料库服务的依赖
type upstreamPinger interface {
	ListCorpora(ctx context.Context) ([]genai.Corpus, error)
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	upstream upstreamPinger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(upstream upstreamPinger) *HealthHandler {
	return &HealthHandler{upstream: upstream}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Ready 就绪检查接口，探测上游语料库服务
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"genai": {Status: "unknown"},
	}

	ready := true
	if h == nil || h.upstream == nil {
		checks["genai"].Status = "missing"
		checks["genai"].Error = "genai client not configured"
		ready = false
	} else {
		start := time.Now()
		_, err := h.upstream.ListCorpora(ctx)
		checks["genai"].LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			checks["genai"].Status = "error"
			checks["genai"].Error = err.Error()
			ready = false
		} else {
			checks["genai"].Status = "ok"
		}
	}

	resp := readinessResponse{
		Status: "ok",
		Checks: checks,
	}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
