package templates

import (
	"fmt"
	"html/template"
	"path"
	"strings"

	"github.com/z-wentao/subhashit/pkg/progress"
)

// Animations 弹窗两侧的 Lottie 动画地址
type Animations struct {
	Left  string
	Right string
}

// Keys 动画在资源桶中的键
func (a Animations) Keys() []string {
	return []string{
		strings.TrimPrefix(a.Left, "/assets/"),
		strings.TrimPrefix(a.Right, "/assets/"),
	}
}

// MainAnimations 完整页面使用的动画
var MainAnimations = Animations{Left: "/assets/Scanning.json", Right: "/assets/video.json"}

// DemoAnimations 动画演示页使用的动画
var DemoAnimations = Animations{Left: "/assets/MXcxdY0Q8P.json", Right: "/assets/ani2.json"}

// StatusText 进度条上的文字
const StatusText = "Processing video translation..."

func hiddenUnless(visible bool, class string) string {
	if visible {
		return class
	}
	return "hidden"
}

// RenderFill 进度条填充部分
func RenderFill(m progress.RenderModel) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<div id="status-bar-fill" class="status-fill" sse-swap="fill" hx-swap="outerHTML" style="width: %d%%; background-color: #00ffff" data-tick="%d"></div>`,
		m.FillPercent, m.Tick))
}

// RenderStages 字幕滚动窗口
func RenderStages(m progress.RenderModel) template.HTML {
	var html strings.Builder
	html.WriteString(`<div id="line-processor" class="line-processor" sse-swap="stages" hx-swap="outerHTML">`)
	for _, row := range m.Stages {
		if row.State == progress.RowPlaceholder {
			html.WriteString(`<div class="stage-row placeholder">&nbsp;</div>`)
			continue
		}

		icon := "○"
		switch row.State {
		case progress.RowCompleted:
			icon = "✓"
		case progress.RowInProgress:
			icon = "⟳"
		}
		html.WriteString(fmt.Sprintf(`<div class="stage-row %s" data-index="%d"><span class="stage-icon">%s</span> %s</div>`,
			row.State, row.Index, icon, template.HTMLEscapeString(row.Caption)))
	}
	html.WriteString(`</div>`)
	return template.HTML(html.String())
}

// RenderControls 取消按钮与下载链接，二者只显示一个
func RenderControls(m progress.RenderModel) template.HTML {
	return template.HTML(fmt.Sprintf(`
<div id="cancel-btn-container" class="cancel-btn-container" sse-swap="controls" hx-swap="outerHTML">
	<button id="cancel-btn" class="%s" hx-post="/api/session/events/cancel" hx-target="#popup" hx-swap="outerHTML">Cancel Process</button>
	<a id="download-btn" class="%s" href="%s" download="%s">Download Video</a>
	<button id="download-btn-helper" style="display: none" hx-post="/api/session/events/download" hx-target="#popup" hx-swap="outerHTML"></button>
</div>`,
		hiddenUnless(m.CancelVisible, "cancel-btn"),
		hiddenUnless(m.DownloadVisible, "download-btn"),
		template.HTMLEscapeString(m.DownloadURL),
		template.HTMLEscapeString(path.Base(m.DownloadURL)),
	))
}

func renderLottie(id, class, src string, m progress.RenderModel) string {
	autoplay := ""
	if m.Autoplay {
		autoplay = " autoplay"
	}
	return fmt.Sprintf(`
	<div id="lottie-container-%s" class="%s">
		<div class="%s">
			<lottie-player id="lottie-%s" src="%s" loop%s></lottie-player>
		</div>
	</div>`,
		id, hiddenUnless(m.AnimationsVisible, "lottie-container-active"),
		class, id, template.HTMLEscapeString(src), autoplay)
}

// RenderOverlay 进度弹窗
func RenderOverlay(m progress.RenderModel, anim Animations) template.HTML {
	return template.HTML(fmt.Sprintf(`
<div id="popup" class="popup %s" sse-swap="overlay" hx-swap="outerHTML" data-phase="%s">
	<button class="close-btn" hx-post="/api/session/events/close" hx-target="#popup" hx-swap="outerHTML">✖</button>
	<div class="popup-content">
		<div id="status-bar-container" class="status-bar">
			%s
			<div class="status-text">%s</div>
		</div>
		%s
		<div class="animation-row">%s%s
		</div>
		%s
	</div>
</div>`,
		hiddenUnless(m.OverlayVisible, "popup-show"),
		m.Phase,
		RenderFill(m),
		StatusText,
		RenderStages(m),
		renderLottie("left", "lottie-animation1 slide-in-left", anim.Left, m),
		renderLottie("right", "lottie-animation2 slide-in-right", anim.Right, m),
		RenderControls(m),
	))
}

// RenderDemoOverlay 动画演示页的弹窗，只有两个动画
func RenderDemoOverlay(m progress.RenderModel, anim Animations) template.HTML {
	return template.HTML(fmt.Sprintf(`
<div id="popup" class="popup %s">
	<div class="popup-content">
		<div class="animation-row">%s%s
		</div>
	</div>
</div>`,
		hiddenUnless(m.OverlayVisible, "popup-show"),
		renderLottie("left", "lottie-animation1 slide-in-left", anim.Left, m),
		renderLottie("right", "lottie-animation2 slide-in-right", anim.Right, m),
	))
}
