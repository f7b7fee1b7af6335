// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"lokalomat/internal/domain/entity"
)

// AskRequest 提问请求
type AskRequest struct {
	Question string `json:"question" binding:"required,max=500"`
	// Parties 为空时默认选中配置的全部党派
	Parties []string `json:"parties,omitempty"`
}

// QuoteResponse 单条引用
type QuoteResponse struct {
	Section string  `json:"section"`
	Score   float64 `json:"score"`
	Quote   string  `json:"quote"`
}

// PartyAnswerResponse 单个党派的回答
type PartyAnswerResponse struct {
	Party         string          `json:"party"`
	Status        string          `json:"status"`
	Quotes        []QuoteResponse `json:"quotes,omitempty"`
	Message       string          `json:"message,omitempty"`
	Summary       string          `json:"summary,omitempty"`
	SummaryStatus string          `json:"summary_status,omitempty"`
	SummaryError  string          `json:"summary_error,omitempty"`
}

// AskResponse 提问响应
type AskResponse struct {
	Question string                 `json:"question"`
	Answers  []*PartyAnswerResponse `json:"answers"`
}

// PartyInfoResponse 党派标签及是否有对应党纲
type PartyInfoResponse struct {
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// PartiesResponse 党派列表响应
type PartiesResponse struct {
	Parties []PartyInfoResponse `json:"parties"`
}

// FromPartyAnswer 将领域回答转换为响应对象
func FromPartyAnswer(a *entity.PartyAnswer) *PartyAnswerResponse {
	if a == nil {
		return nil
	}
	resp := &PartyAnswerResponse{
		Party:         a.Party,
		Status:        string(a.Status),
		Message:       a.Message,
		Summary:       a.Summary,
		SummaryStatus: string(a.SummaryStatus),
		SummaryError:  a.SummaryError,
	}
	for _, q := range a.Quotes {
		resp.Quotes = append(resp.Quotes, QuoteResponse{
			Section: q.Section,
			Score:   q.Score,
			Quote:   q.Quote,
		})
	}
	return resp
}

// NewAskResponse 组装提问响应，保持党派顺序
func NewAskResponse(question string, answers []*entity.PartyAnswer) *AskResponse {
	resp := &AskResponse{
		Question: question,
		Answers:  make([]*PartyAnswerResponse, 0, len(answers)),
	}
	for _, a := range answers {
		resp.Answers = append(resp.Answers, FromPartyAnswer(a))
	}
	return resp
}
