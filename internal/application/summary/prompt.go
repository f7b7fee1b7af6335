package summary

import (
	"fmt"
	"strings"

	"lokalomat/internal/domain/entity"
)

// promptInstructions 摘要提示词的约束部分。
// 四个固定的 Kurzfazit 句式、禁止从缺失推断立场、Passage [#] 归属、
// 不相关段落的固定话术、禁止引入引文之外的内容，这些约束共同定义了
// grounding 的正确性，修改措辞前先确认不破坏这些约束。
const promptInstructions = "Fasse die Passagen im 'context' zusammen." +
	"Gib im ersten Satz zunächst ein Kurzfazit: Beantworte dabei, wie das Parteiprogramm die gestellte Frage beantwortet." +
	"Fasse die Passagen knapp zusammen, sofern sie in einem klarem inhaltlichen Zusammenhang zur Frage stehen." +
	"Nehme dabei schon Bezug auf die Inhalte der Passagen. Beschränke dich auf die Punkte, die der Partei am wichtigsten zu sein scheinen." +
	"Wenn nach bestimmten Orten oder Stadtteilen gefragt wird, schränke ein, wenn diese Orte nicht explizit erwähnt werden" +
	"Das Kurzfazit sollte einem der folgenden 4 Muster folgen: Die Partei fordert [...], Die Partei gibt an [...], Die Partei möchte [...] oder Die Partei hat in ihrem Programm keine explizite Position zu [...]." +
	"Falls die Passagen alle nicht zur Frage passen, erwähne im Kurzfazit nur, dass die Partei zur Frage keine explizite Position bezieht." +
	"Ziehe niemals Schlussfolgerungen zu Parteipositionen aus dem Fehlen thematisch relevanter Passagen." +
	"Fasse dann die konkreten, zur Frage passenden politischen Positionen und Forderungen innerhalb der jeweiligen Passagen zusammen." +
	"Die Zusammenfassungen sollen aus bis zu 3-4 ganzen Sätzen bestehen und keine Bullet Points oder ähnliches enthalten." +
	"Ordne die Passagen dabei nach Relevanz, sodass relevantere Passagen zuerst behandelt werden." +
	"Wenn du eine Passage zusammenfasst, ordne sie explizit der jeweiligen Passagen zu. Folge dabei immer dem Muster Passage [#]:" +
	"Falls die Inhalte einer Passage keine direkte Relevanz zur gestellten Frage haben, ignoriere sie und fasse sie nicht zusammen." +
	"Schreibe dann lediglich: Passage [#] befasst sich nicht mit der Thematik. Füge in diesem Fall keinesfalls hinzu, womit sich diese irrelevante Passage befasst!" +
	"Wenn die Relevanz unklar ist, fasse die Passage zusammen um keine wichtigen Positionen auszulassen, aber betone zunächst, dass die Relevanz nicht eindeutig ist." +
	"Nenne niemals Inhalte, die nicht in den Passagen stehen!"

// BuildPrompt 组装摘要提示词：约束部分 + 问题 + 按序编号的引文
func BuildPrompt(question string, quotes []entity.Quote) string {
	context := buildContext(quotes)
	return fmt.Sprintf("%s\n\nFrage: %s\n\nZitate:\n%s\n\nAntwort:", promptInstructions, question, context)
}

// buildContext 将引文按到达顺序（相关度降序）编号为 [1]、[2]、…
func buildContext(quotes []entity.Quote) string {
	lines := make([]string, 0, len(quotes))
	for i, q := range quotes {
		lines = append(lines, fmt.Sprintf("[%d] %s", i+1, q.Quote))
	}
	return strings.Join(lines, "\n\n")
}
