package templates

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/z-wentao/subhashit/pkg/models"
	"github.com/z-wentao/subhashit/pkg/progress"
)

// RenderTextTable 文本翻译结果：语言 / 译文 / 音频
func RenderTextTable(records []models.TranslationRecord) template.HTML {
	var html strings.Builder
	html.WriteString(`<table class="result-table"><thead><tr><th>Language</th><th>Translated Text</th><th>Audio</th></tr></thead><tbody>`)
	for _, r := range records {
		html.WriteString(fmt.Sprintf(`<tr><td>%s</td><td>%s</td><td>%s</td></tr>`,
			template.HTMLEscapeString(r.Language),
			template.HTMLEscapeString(r.Translation),
			renderAudioCell(r)))
	}
	html.WriteString(`</tbody></table>`)
	return template.HTML(html.String())
}

// RenderAudioTable 音频翻译结果：语言 / 译音
func RenderAudioTable(records []models.TranslationRecord) template.HTML {
	var html strings.Builder
	html.WriteString(`<table class="result-table"><thead><tr><th>Language</th><th>Translated Audio</th></tr></thead><tbody>`)
	for _, r := range records {
		cell := renderAudioCell(r)
		// 兜底记录没有音频，显示错误信息
		if !r.HasAudio() && r.Translation != "" {
			cell = template.HTMLEscapeString(r.Translation)
		}
		html.WriteString(fmt.Sprintf(`<tr><td>%s</td><td>%s</td></tr>`,
			template.HTMLEscapeString(r.Language), cell))
	}
	html.WriteString(`</tbody></table>`)
	return template.HTML(html.String())
}

func renderAudioCell(r models.TranslationRecord) string {
	if !r.HasAudio() {
		return ""
	}
	src := template.HTMLEscapeString(r.AudioFile)
	return fmt.Sprintf(`<audio src="%s" controls style="width: 200px"></audio><br><a href="%s" download>Download</a>`, src, src)
}

func renderRecordTable(kind models.JobKind, records []models.TranslationRecord) template.HTML {
	if kind == models.KindAudio {
		return RenderAudioTable(records)
	}
	return RenderTextTable(records)
}

// RenderResult 翻译结果弹窗与输入缺失提示
// 等待结果期间每秒轮询一次，未建立 SSE 连接时也能收到结果
func RenderResult(r progress.ResultView) template.HTML {
	var html strings.Builder

	poll := ""
	if r.Pending {
		poll = ` hx-get="/api/session/result" hx-trigger="every 1s" hx-swap="outerHTML"`
	}
	html.WriteString(fmt.Sprintf(`<div id="result" sse-swap="result" hx-swap="outerHTML"%s>`, poll))

	if r.Warning != "" {
		html.WriteString(fmt.Sprintf(`<div class="status-display warning">%s</div>`, template.HTMLEscapeString(r.Warning)))
	}

	if r.Open {
		title := "Translation Result"
		if r.Kind == models.KindAudio {
			title = "Audio Translation Result"
		}

		body := `<div class="spinner">⏳ Translating...</div>`
		if !r.Pending {
			body = string(renderRecordTable(r.Kind, r.Records))
		}

		html.WriteString(fmt.Sprintf(`
<div class="modal-backdrop">
	<div class="modal" role="dialog">
		<div class="modal-header">%s</div>
		<div class="modal-body">%s</div>
		<div class="modal-footer">
			<button class="modal-close" hx-post="/api/session/events/close_result" hx-target="#result" hx-swap="outerHTML">Close</button>
		</div>
	</div>
</div>`, title, body))
	}

	html.WriteString(`</div>`)
	return template.HTML(html.String())
}
