// Package server 翻译演示的 HTTP 服务
package server

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/z-wentao/subhashit/pkg/assets"
	"github.com/z-wentao/subhashit/pkg/config"
	"github.com/z-wentao/subhashit/pkg/gateway"
	"github.com/z-wentao/subhashit/pkg/inspector"
	"github.com/z-wentao/subhashit/pkg/languages"
	"github.com/z-wentao/subhashit/pkg/models"
	"github.com/z-wentao/subhashit/pkg/progress"
	"github.com/z-wentao/subhashit/pkg/queue"
	"github.com/z-wentao/subhashit/pkg/session"
	"github.com/z-wentao/subhashit/pkg/storage"
	"github.com/z-wentao/subhashit/pkg/templates"
)

// CookieName 会话 Cookie 名
const CookieName = "subhashit_session"

const sessionKey = "session_id"

// 输入缺失时的提示
const (
	MissingTextWarning  = "⚠️ Please enter text to translate."
	MissingAudioWarning = "⚠️ No audio found. Please upload first."
)

// Deps 完整页面的依赖
type Deps struct {
	Config    *config.Config
	Sessions  *session.Manager
	Queue     queue.Queue
	Store     storage.Store
	Inspector *inspector.Inspector
	Assets    *assets.Store
}

// App 完整页面应用
type App struct {
	base
	sessions  *session.Manager
	queue     queue.Queue
	store     storage.Store
	inspector *inspector.Inspector
	assets    *assets.Store
}

// NewApp 创建完整页面应用
func NewApp(deps Deps) *App {
	return &App{
		base:      base{config: deps.Config, catalog: languages.Full()},
		sessions:  deps.Sessions,
		queue:     deps.Queue,
		store:     deps.Store,
		inspector: deps.Inspector,
		assets:    deps.Assets,
	}
}

// ProgressSettings 由配置和字幕脚本生成进度控制器配置
func ProgressSettings(cfg *config.Config, captions []string, downloadURL string) progress.Settings {
	return progress.Settings{
		MaxTicks:      cfg.Progress.MaxTicks,
		TickInterval:  cfg.Progress.TickInterval(),
		Captions:      captions,
		MaxVisible:    cfg.Ticker.MaxVisible,
		CaptionBudget: cfg.Ticker.TotalDuration(),
		StartDelay:    cfg.Ticker.StartDelay(),
		DownloadURL:   downloadURL,
	}
}

// Router 设置路由
func (app *App) Router() *gin.Engine {
	r := gin.Default()
	r.Use(ginCORS(CORSOptions(app.config.CORS.Origins)))

	r.GET("/assets/*key", app.handleAsset)
	r.HEAD("/assets/*key", app.handleAsset)

	// 模拟翻译后端
	r.POST("/text-to-speech", handleTextToSpeech)

	r.GET("/", app.withSession, app.handleIndex)

	api := r.Group("/api")
	{
		api.GET("/ping", app.handlePing)
		api.GET("/languages", app.handleLanguages)
		api.POST("/languages/swap", app.handleSwap)
		api.POST("/upload/text", app.handleUploadText)
	}

	sess := r.Group("/api", app.withSession)
	{
		sess.GET("/session/stream", app.handleStream)
		sess.GET("/session/render", app.handleRender)
		sess.GET("/session/result", app.handleResult)
		sess.POST("/session/events/:kind", app.handleEvent)

		sess.POST("/translate/text", app.handleTranslateText)
		sess.POST("/translate/audio", app.handleTranslateAudio)
		sess.POST("/upload/audio", app.handleUploadAudio)
		sess.POST("/upload/video", app.handleUploadVideo)

		sess.GET("/jobs", app.handleListJobs)
		sess.GET("/jobs/:job_id", app.handleGetJob)
		sess.DELETE("/jobs/:job_id", app.handleDeleteJob)
	}

	return r
}

// withSession 解析会话 Cookie，没有或无效时新建会话
func (app *App) withSession(c *gin.Context) {
	token, _ := c.Cookie(CookieName)

	id, issued, err := app.sessions.Resolve(token)
	if err != nil {
		log.Printf("❌ 创建会话失败: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "创建会话失败"})
		return
	}

	if issued != token {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, issued, int(app.config.Session.TTL().Seconds()), "/", "", false, true)
	}
	c.Set(sessionKey, id)
	c.Next()
}

func (app *App) controller(c *gin.Context) (*progress.Controller, bool) {
	ctrl, err := app.sessions.Controller(c.GetString(sessionKey))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
		return nil, false
	}
	return ctrl, true
}

// handleIndex 完整页面
func (app *App) handleIndex(c *gin.Context) {
	ctrl, ok := app.controller(c)
	if !ok {
		return
	}
	model := ctrl.Latest()

	c.Header("Content-Type", "text/html; charset=utf-8")
	err := templates.RenderPage(c.Writer, templates.PageIndex, templates.PageData{
		Title:     "Subhashit",
		Languages: templates.RenderLanguageSelection(app.catalog, app.catalog.DefaultSource, app.catalog.DefaultTarget),
		TextInput: templates.RenderTextInput(""),
		Overlay:   templates.RenderOverlay(model, templates.MainAnimations),
		Result:    templates.RenderResult(model.Result),
	})
	if err != nil {
		log.Printf("❌ %v", err)
	}
}

func (app *App) handleAsset(c *gin.Context) {
	app.assets.Serve(c.Writer, c.Request, strings.TrimPrefix(c.Param("key"), "/"))
}

// handleEvent 浏览器触发的弹窗事件
func (app *App) handleEvent(c *gin.Context) {
	kind, ok := progress.ParseEventKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未知事件: " + c.Param("kind")})
		return
	}

	ctrl, ok := app.controller(c)
	if !ok {
		return
	}

	tr, err := ctrl.Apply(c.Request.Context(), progress.Event{Kind: kind})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	if !isHTMX(c) {
		c.JSON(http.StatusOK, tr.Model)
		return
	}
	if kind == progress.EventCloseResult {
		renderHTML(c, templates.RenderResult(tr.Model.Result))
		return
	}
	renderHTML(c, templates.RenderOverlay(tr.Model, templates.MainAnimations))
}

// handleRender 当前渲染数据
func (app *App) handleRender(c *gin.Context) {
	ctrl, ok := app.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Latest())
}

// handleResult 翻译结果片段，等待期间由页面轮询
func (app *App) handleResult(c *gin.Context) {
	ctrl, ok := app.controller(c)
	if !ok {
		return
	}
	renderHTML(c, templates.RenderResult(ctrl.Latest().Result))
}

// respondResult 按请求类型返回结果片段或 JSON
func (app *App) respondResult(c *gin.Context, status int, model progress.RenderModel, extra gin.H) {
	if isHTMX(c) {
		renderHTML(c, templates.RenderResult(model.Result))
		return
	}
	body := gin.H{"result": model.Result}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// missingInput 输入缺失：只显示提示，不打开结果弹窗
func (app *App) missingInput(c *gin.Context, kind models.JobKind, warning string) {
	ctrl, ok := app.controller(c)
	if !ok {
		return
	}
	tr, err := ctrl.Apply(c.Request.Context(), progress.Event{
		Kind:    progress.EventMissingInput,
		JobKind: kind,
		Warning: warning,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	app.respondResult(c, http.StatusUnprocessableEntity, tr.Model, gin.H{"error": languages.ErrMissingInput.Error()})
}

func targetsFromForm(c *gin.Context) []string {
	if raw := c.PostForm("targets"); raw != "" {
		var targets []string
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				targets = append(targets, t)
			}
		}
		return targets
	}
	return []string{c.PostForm("target")}
}

// handleTranslateText 文本翻译
func (app *App) handleTranslateText(c *gin.Context) {
	text := c.PostForm("text")
	if strings.TrimSpace(text) == "" {
		app.missingInput(c, models.KindText, MissingTextWarning)
		return
	}

	app.dispatch(c, &models.TranslationJob{
		Kind:        models.KindText,
		SourceText:  text,
		SourceLang:  c.PostForm("source"),
		TargetLangs: targetsFromForm(c),
	})
}

// handleTranslateAudio 音频翻译，audio_id 来自上传接口
func (app *App) handleTranslateAudio(c *gin.Context) {
	path, ok := app.audioPath(c.PostForm("audio_id"))
	if !ok {
		app.missingInput(c, models.KindAudio, MissingAudioWarning)
		return
	}

	app.dispatch(c, &models.TranslationJob{
		Kind:        models.KindAudio,
		Filename:    filepath.Base(path),
		FilePath:    path,
		SourceLang:  c.PostForm("source"),
		TargetLangs: targetsFromForm(c),
	})
}

// audioPath 只接受上传目录下的文件名
func (app *App) audioPath(audioID string) (string, bool) {
	if audioID == "" || audioID != filepath.Base(audioID) || strings.HasPrefix(audioID, ".") {
		return "", false
	}
	path := filepath.Join(app.config.Server.UploadDir, audioID)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// dispatch 分配序号、保存任务、通知控制器后入队
func (app *App) dispatch(c *gin.Context, job *models.TranslationJob) {
	sessionID := c.GetString(sessionKey)
	ctrl, ok := app.controller(c)
	if !ok {
		return
	}

	job.JobID = uuid.New().String()
	job.SessionID = sessionID
	job.Status = models.StatusPending
	job.CreatedAt = time.Now()

	seq, err := app.sessions.Reserve(sessionID, job.JobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "会话不存在"})
		return
	}
	job.Seq = seq

	if err := app.store.Save(job); err != nil {
		app.sessions.Release(sessionID, seq)
		log.Printf("❌ 保存任务失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存任务失败"})
		return
	}

	tr, err := ctrl.Apply(c.Request.Context(), progress.Event{
		Kind:    progress.EventTranslationDispatched,
		Seq:     seq,
		JobKind: job.Kind,
	})
	if err != nil {
		app.sessions.Release(sessionID, seq)
		app.store.Update(job.JobID, func(j *models.TranslationJob) {
			j.Status = models.StatusFailed
			j.Error = err.Error()
			j.CompletedAt = time.Now()
		})
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	// 并发提交时更新的请求先到达控制器，本请求已失效，不再入队
	if !tr.After.Accepts(seq) {
		log.Printf("请求 #%d 已被更新的请求顶替，不再入队", seq)
		app.respondResult(c, http.StatusOK, tr.Model, gin.H{
			"job_id": job.JobID,
			"seq":    seq,
			"status": models.StatusCancelled,
		})
		return
	}

	if err := app.queue.Enqueue(job); err != nil {
		log.Printf("❌ 任务加入队列失败: %v", err)
		app.failDispatch(c, job, err)
		return
	}

	log.Printf("✓ 任务已加入队列: %s (#%d)", job.JobID, seq)
	app.respondResult(c, http.StatusAccepted, tr.Model, gin.H{
		"job_id": job.JobID,
		"seq":    seq,
		"status": job.Status,
	})
}

// failDispatch 入队失败时直接给会话一条兜底结果
func (app *App) failDispatch(c *gin.Context, job *models.TranslationJob, cause error) {
	records := gateway.Fallback(job.TargetLangs, cause)

	if err := app.store.Update(job.JobID, func(j *models.TranslationJob) {
		j.Status = models.StatusFailed
		j.Records = records
		j.Error = cause.Error()
		j.CompletedAt = time.Now()
	}); err != nil {
		log.Printf("⚠️ 更新任务 %s 失败: %v", job.JobID, err)
	}

	if _, err := app.sessions.Deliver(c.Request.Context(), job.SessionID, job.Seq, records); err != nil {
		log.Printf("⚠️ %v", err)
	}

	ctrl, ok := app.controller(c)
	if !ok {
		return
	}
	app.respondResult(c, http.StatusServiceUnavailable, ctrl.Latest(), gin.H{"error": "任务加入队列失败"})
}

// handleUploadAudio 保存音频，返回 audio_id 和 Translate Audio 按钮
func (app *App) handleUploadAudio(c *gin.Context) {
	file, f, ok := app.openUpload(c)
	if !ok {
		return
	}
	defer f.Close()

	path, err := app.inspector.SaveAudio(file.Filename, f)
	if err != nil {
		log.Printf("❌ 保存音频失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}
	audioID := filepath.Base(path)
	log.Printf("✓ 音频已保存: %s (%.2f MB)", audioID, float64(file.Size)/1024/1024)

	if isHTMX(c) {
		renderHTML(c, templates.RenderAudioUploaded(inspector.AudioUploadedMessage, audioID))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"audio_id": audioID,
		"filename": file.Filename,
		"message":  inspector.AudioUploadedMessage,
	})
}

// handleUploadVideo 探测视频时长和大小；失败只显示错误，不影响弹窗
func (app *App) handleUploadVideo(c *gin.Context) {
	file, f, ok := app.openUpload(c)
	if !ok {
		return
	}
	defer f.Close()

	info, err := app.inspector.InspectVideo(c.Request.Context(), file.Filename, f)
	if err != nil {
		log.Printf("⚠️ 视频解析失败: %v", err)
		msg := inspector.VideoErrorStatus(err)
		if isHTMX(c) {
			renderHTML(c, templates.RenderStatus("video-status", msg))
			return
		}
		status := http.StatusInternalServerError
		var decodeErr *inspector.DecodeError
		if errors.As(err, &decodeErr) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	lines := inspector.VideoStatus(info)
	if isHTMX(c) {
		renderHTML(c, templates.RenderVideoUploaded(lines))
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": info, "status": lines})
}

// handleListJobs 当前会话的任务
func (app *App) handleListJobs(c *gin.Context) {
	jobs, err := app.store.ListBySession(c.GetString(sessionKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询任务失败"})
		return
	}
	if jobs == nil {
		jobs = []*models.TranslationJob{}
	}

	if isHTMX(c) {
		renderHTML(c, templates.RenderJobsList(jobs))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// handleGetJob 获取任务状态
func (app *App) handleGetJob(c *gin.Context) {
	job, ok := app.ownJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job)
}

// ownJob 其他会话的任务一律按不存在处理
func (app *App) ownJob(c *gin.Context) (*models.TranslationJob, bool) {
	job, err := app.store.Get(c.Param("job_id"))
	if err != nil || job.SessionID != c.GetString(sessionKey) {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return nil, false
	}
	return job, true
}

// handleDeleteJob 删除任务记录
func (app *App) handleDeleteJob(c *gin.Context) {
	job, ok := app.ownJob(c)
	if !ok {
		return
	}
	jobID := job.JobID
	if err := app.store.Delete(jobID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除任务失败"})
		return
	}

	if isHTMX(c) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "删除成功", "job_id": jobID})
}
