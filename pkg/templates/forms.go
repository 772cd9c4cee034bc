package templates

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/z-wentao/subhashit/pkg/languages"
)

// RenderLanguageOptions 下拉框选项
func RenderLanguageOptions(list []languages.Language, selected string) template.HTML {
	var html strings.Builder
	for _, l := range list {
		attr := ""
		if l.Code == selected {
			attr = " selected"
		}
		html.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`,
			template.HTMLEscapeString(l.Code), attr, template.HTMLEscapeString(l.Label)))
	}
	return template.HTML(html.String())
}

// RenderLanguageSelection 源语言、交换按钮、目标语言
func RenderLanguageSelection(c languages.Catalog, source, target string) template.HTML {
	return template.HTML(fmt.Sprintf(`
<div id="language-selection" class="language-selection">
	<div class="language-selector">
		<label class="language-label" for="source-language">From:</label>
		<select id="source-language" name="source" class="language-dropdown">%s</select>
	</div>
	<div class="swap-container">
		<button class="swap-button" id="swap-languages" hx-post="/api/languages/swap" hx-include="#source-language, #target-language" hx-target="#language-selection" hx-swap="outerHTML">⇄</button>
	</div>
	<div class="language-selector">
		<label class="language-label" for="target-language">To:</label>
		<select id="target-language" name="target" class="language-dropdown">%s</select>
	</div>
</div>`,
		RenderLanguageOptions(c.Source, source),
		RenderLanguageOptions(c.Target, target),
	))
}

// RenderTextInput 文本输入框，上传文本文件后整体替换
func RenderTextInput(text string) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<textarea id="text-input" name="text" class="text-area input-area" rows="6" placeholder="Enter text to translate...">%s</textarea>`,
		template.HTMLEscapeString(text)))
}

// RenderStatus 状态提示，多行时逐行显示
func RenderStatus(id string, lines ...string) template.HTML {
	var html strings.Builder
	html.WriteString(fmt.Sprintf(`<div id="%s" class="status-display">`, id))
	for _, line := range lines {
		html.WriteString(fmt.Sprintf(`<div>%s</div>`, template.HTMLEscapeString(line)))
	}
	html.WriteString(`</div>`)
	return template.HTML(html.String())
}

// RenderAudioUploaded 音频上传成功后显示 Translate Audio 按钮
func RenderAudioUploaded(message, audioID string) template.HTML {
	return template.HTML(fmt.Sprintf(`
%s
<input type="hidden" id="audio-id" name="audio_id" value="%s">
<button id="audio-translate-btn" class="media-button" hx-post="/api/translate/audio" hx-include="#audio-id, #source-language, #target-language" hx-target="#result" hx-swap="outerHTML">Translate Audio</button>`,
		RenderStatus("audio-status", message),
		template.HTMLEscapeString(audioID),
	))
}

// RenderVideoUploaded 视频上传成功后显示 Translate 按钮
func RenderVideoUploaded(lines []string) template.HTML {
	return template.HTML(fmt.Sprintf(`
%s
<div id="translate-container">
	<button id="translate-btn" class="media-button upload" hx-post="/api/session/events/start" hx-target="#popup" hx-swap="outerHTML">Translate</button>
</div>`, RenderStatus("video-status", lines...)))
}

// RenderTranslationOutput 简化页面的译文区域
func RenderTranslationOutput(text string) template.HTML {
	return template.HTML(fmt.Sprintf(`<div id="translation-output" class="output-area">%s</div>`,
		strings.ReplaceAll(template.HTMLEscapeString(text), "\n", "<br>")))
}
