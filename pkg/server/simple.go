package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/z-wentao/subhashit/pkg/config"
	"github.com/z-wentao/subhashit/pkg/languages"
	"github.com/z-wentao/subhashit/pkg/templates"
)

// OutputPlaceholder 简化页面译文区域的默认文字
const OutputPlaceholder = "Translation will appear here..."

// SimpleApp 简化页面：译文直接显示在页面上，没有进度弹窗
type SimpleApp struct {
	base
}

// NewSimpleApp 创建简化页面应用
func NewSimpleApp(cfg *config.Config) *SimpleApp {
	return &SimpleApp{base: base{config: cfg, catalog: languages.Simple()}}
}

// Router 设置路由
func (app *SimpleApp) Router() *gin.Engine {
	r := gin.Default()
	r.Use(ginCORS(CORSOptions(app.config.CORS.Origins)))

	r.GET("/", app.handleIndex)

	api := r.Group("/api")
	{
		api.GET("/ping", app.handlePing)
		api.GET("/languages", app.handleLanguages)
		api.POST("/languages/swap", app.handleSwap)
		api.POST("/translate", app.handleTranslate)
		api.POST("/upload/text", app.handleUploadText)
		api.POST("/upload/audio", app.handleUploadMedia("audio-status", "Audio"))
		api.POST("/upload/video", app.handleUploadMedia("video-status", "Video"))
	}

	return r
}

func (app *SimpleApp) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	err := templates.RenderPage(c.Writer, templates.PageSimple, templates.PageData{
		Title:     "AI Translation Hub",
		Languages: templates.RenderLanguageSelection(app.catalog, app.catalog.DefaultSource, app.catalog.DefaultTarget),
		TextInput: templates.RenderTextInput(""),
		Output:    templates.RenderTranslationOutput(OutputPlaceholder),
	})
	if err != nil {
		log.Printf("❌ %v", err)
	}
}

// handleTranslate 占位译文；没有文本时恢复默认文字
func (app *SimpleApp) handleTranslate(c *gin.Context) {
	text, err := languages.DemoTranslation(app.catalog, c.PostForm("text"), c.PostForm("source"), c.PostForm("target"))
	if errors.Is(err, languages.ErrMissingInput) {
		text = OutputPlaceholder
	}

	if isHTMX(c) {
		renderHTML(c, templates.RenderTranslationOutput(text))
		return
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "translation": text})
		return
	}
	c.JSON(http.StatusOK, gin.H{"translation": text})
}

// handleUploadMedia 简化页面只确认收到文件
func (app *SimpleApp) handleUploadMedia(statusID, label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, f, ok := app.openUpload(c)
		if !ok {
			return
		}
		defer f.Close()

		if _, err := io.Copy(io.Discard, f); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文件失败"})
			return
		}

		msg := fmt.Sprintf("%s file '%s' uploaded successfully! Ready for translation.", label, file.Filename)
		if isHTMX(c) {
			renderHTML(c, templates.RenderStatus(statusID, "✅ "+msg))
			return
		}
		c.JSON(http.StatusOK, gin.H{"filename": file.Filename, "message": msg})
	}
}
