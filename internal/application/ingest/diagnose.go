package ingest

import (
	"context"
	"fmt"
	"strings"

	"lokalomat/internal/infrastructure/genai"
)

// ItemResult 诊断阶段单条 chunk 的判定
type ItemResult struct {
	// Index 该条目在整个上传序列中的下标
	Index int
	// Accepted 单独重提是否被接受
	Accepted bool
	// Reason 被拒原因或可疑点说明
	Reason string
	// Chars 文本长度（rune 数）
	Chars int
	// Tokens countTokens 结果，未启用为 0
	Tokens int
	// Head / Tail 文本首尾片段，换行替换为 ⏎
	Head string
	Tail string
}

// DiagnoseBatch 逐条重提被拒批次中的每个条目以定位问题项。
// offset 是批次首条在整个上传序列中的下标。
func (l *Loader) DiagnoseBatch(ctx context.Context, documentName string, offset int, batch []genai.Chunk) []ItemResult {
	results := make([]ItemResult, 0, len(batch))
	for j := range batch {
		item := batch[j]
		s := item.Data.StringValue

		r := ItemResult{
			Index: offset + j,
			Chars: len([]rune(s)),
			Head:  snippetHead(s),
			Tail:  snippetTail(s),
		}

		if strings.TrimSpace(s) == "" {
			r.Accepted = false
			r.Reason = "empty/whitespace-only chunk"
			results = append(results, r)
			continue
		}

		var notes []string
		if bad := controlChars(s); len(bad) > 0 {
			notes = append(notes, fmt.Sprintf("contains control chars %s", formatRunes(bad)))
		}

		if l.cfg.DiagnoseTokens && l.tokenModel != "" {
			tokens, err := l.client.CountTokens(ctx, l.tokenModel, s)
			if err != nil {
				notes = append(notes, fmt.Sprintf("countTokens failed: %v", err))
			} else {
				r.Tokens = tokens
			}
		}

		// 单条重提，确认该条目是否真的被拒
		if err := l.client.BatchCreateChunks(ctx, documentName, []genai.Chunk{item}); err != nil {
			r.Accepted = false
			notes = append(notes, err.Error())
			r.Reason = strings.Join(notes, "; ")
		} else {
			r.Accepted = true
			r.Reason = strings.Join(notes, "; ")
		}
		results = append(results, r)
	}
	return results
}

// controlChars 收集可疑控制字符。tab(9)、LF(10)、CR(13) 是允许的，
// 其余 32 以下的码位都值得怀疑。
func controlChars(s string) []rune {
	var bad []rune
	for _, c := range s {
		if c < 9 || (c >= 11 && c <= 12) || (c >= 14 && c <= 31) {
			bad = append(bad, c)
		}
	}
	return bad
}

// formatRunes 以十六进制列出控制字符，最多 5 个
func formatRunes(runes []rune) string {
	limit := len(runes)
	if limit > 5 {
		limit = 5
	}
	parts := make([]string, 0, limit)
	for _, c := range runes[:limit] {
		parts = append(parts, fmt.Sprintf("%#x", c))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// snippetHead 返回文本开头片段，换行替换为可见符号
func snippetHead(s string) string {
	runes := []rune(s)
	if len(runes) > 120 {
		runes = runes[:120]
	}
	return strings.ReplaceAll(string(runes), "\n", " ⏎ ")
}

// snippetTail 返回文本结尾片段，换行替换为可见符号
func snippetTail(s string) string {
	runes := []rune(s)
	if len(runes) > 120 {
		runes = runes[len(runes)-120:]
	}
	return strings.ReplaceAll(string(runes), "\n", " ⏎ ")
}
