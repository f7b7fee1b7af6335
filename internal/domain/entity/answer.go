// Package entity 定义领域实体
package entity

import (
	"fmt"
	"math"
)

// AnswerStatus 党派回答状态
type AnswerStatus string

const (
	// AnswerStatusOK 至少找到一条可引用的段落
	AnswerStatusOK AnswerStatus = "ok"
	// AnswerStatusNoInfo 未找到可引用的段落或党派无法解析
	AnswerStatusNoInfo AnswerStatus = "no_info"
	// AnswerStatusError 该党派的检索失败，其余党派不受影响
	AnswerStatusError AnswerStatus = "error"
)

// SummaryStatus 摘要生成状态
type SummaryStatus string

const (
	SummaryStatusOK    SummaryStatus = "ok"
	SummaryStatusError SummaryStatus = "error"
)

// Quote 展示用引用：党派党纲中的一段原文及其章节与相关度
type Quote struct {
	Section string  `json:"section"`
	Score   float64 `json:"score"`
	Quote   string  `json:"quote"`
}

// NewQuote 创建引用，相关度四舍五入到 3 位小数
func NewQuote(section, text string, score float64) Quote {
	return Quote{
		Section: section,
		Score:   RoundScore(score),
		Quote:   text,
	}
}

// RoundScore 将相关度四舍五入到 3 位小数
func RoundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}

// PartyAnswer 单个党派的结构化回答
type PartyAnswer struct {
	Party  string       `json:"party"`
	Status AnswerStatus `json:"status"`
	Quotes []Quote      `json:"quotes,omitempty"`
	// Message 在 no_info / error 状态下的用户可读说明
	Message string `json:"message,omitempty"`

	// 摘要字段由摘要阶段按槽位回写
	Summary       string        `json:"summary,omitempty"`
	SummaryStatus SummaryStatus `json:"summary_status,omitempty"`
	SummaryError  string        `json:"summary_error,omitempty"`
}

// NewOKAnswer 创建 ok 状态回答，拒绝空引用列表
func NewOKAnswer(party string, quotes []Quote) (*PartyAnswer, error) {
	if len(quotes) == 0 {
		return nil, fmt.Errorf("ok answer for %q requires at least one quote", party)
	}
	return &PartyAnswer{
		Party:  party,
		Status: AnswerStatusOK,
		Quotes: quotes,
	}, nil
}

// NewNoInfoAnswer 创建 no_info 状态回答
func NewNoInfoAnswer(party, message string) *PartyAnswer {
	return &PartyAnswer{
		Party:   party,
		Status:  AnswerStatusNoInfo,
		Message: message,
	}
}

// NewErrorAnswer 创建 error 状态回答，用于隔离单个党派的检索失败
func NewErrorAnswer(party, message string) *PartyAnswer {
	return &PartyAnswer{
		Party:   party,
		Status:  AnswerStatusError,
		Message: message,
	}
}

// HasQuotes 判断回答是否带有可供摘要的引用
func (a *PartyAnswer) HasQuotes() bool {
	return a != nil && a.Status == AnswerStatusOK && len(a.Quotes) > 0
}
