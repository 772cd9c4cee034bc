package server

import (
	"html/template"
	"io"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/z-wentao/subhashit/pkg/progress"
	"github.com/z-wentao/subhashit/pkg/templates"
)

const keepAliveInterval = 15 * time.Second

// SSE 事件名，与页面上的 sse-swap 对应
const (
	eventOverlay  = "overlay"
	eventFill     = "fill"
	eventStages   = "stages"
	eventControls = "controls"
	eventResult   = "result"
)

type sseEvent struct {
	name string
	html template.HTML
}

// diffEvents 只推送变化的区域
// 弹窗显隐变化时整体替换，否则只替换进度条、字幕和按钮，避免动画重新播放
func diffEvents(prev *progress.RenderModel, next progress.RenderModel, anim templates.Animations) []sseEvent {
	var events []sseEvent

	switch {
	case prev == nil || prev.OverlayVisible != next.OverlayVisible:
		events = append(events, sseEvent{eventOverlay, templates.RenderOverlay(next, anim)})
	default:
		if prev.Tick != next.Tick || prev.FillPercent != next.FillPercent {
			events = append(events, sseEvent{eventFill, templates.RenderFill(next)})
		}
		if !reflect.DeepEqual(prev.Stages, next.Stages) {
			events = append(events, sseEvent{eventStages, templates.RenderStages(next)})
		}
		if prev.CancelVisible != next.CancelVisible || prev.DownloadVisible != next.DownloadVisible {
			events = append(events, sseEvent{eventControls, templates.RenderControls(next)})
		}
	}

	if prev == nil || !reflect.DeepEqual(prev.Result, next.Result) {
		events = append(events, sseEvent{eventResult, templates.RenderResult(next.Result)})
	}
	return events
}

// handleStream 把控制器的渲染结果以 SSE 推给浏览器
func (app *App) handleStream(c *gin.Context) {
	sessionID := c.GetString(sessionKey)
	ctrl, ok := app.controller(c)
	if !ok {
		return
	}

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	var prev *progress.RenderModel
	c.Stream(func(w io.Writer) bool {
		select {
		case model, ok := <-updates:
			if !ok {
				return false
			}
			for _, ev := range diffEvents(prev, model, templates.MainAnimations) {
				c.SSEvent(ev.name, string(ev.html))
			}
			prev = &model
			app.sessions.Touch(sessionID)
			return true

		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().Unix())
			app.sessions.Touch(sessionID)
			return true

		case <-c.Request.Context().Done():
			return false
		}
	})
}
