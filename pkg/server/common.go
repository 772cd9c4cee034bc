package server

import (
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/z-wentao/subhashit/pkg/config"
	"github.com/z-wentao/subhashit/pkg/inspector"
	"github.com/z-wentao/subhashit/pkg/languages"
	"github.com/z-wentao/subhashit/pkg/templates"
)

// Version 接口返回的版本号
const Version = "1.0.0"

// base 完整页面与简化页面共用的处理器
type base struct {
	config  *config.Config
	catalog languages.Catalog
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

func renderHTML(c *gin.Context, html template.HTML) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// handlePing 健康检查
func (b *base) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"version": Version,
	})
}

// handleLanguages 语言列表
func (b *base) handleLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, b.catalog)
}

// handleSwap 交换源语言和目标语言
func (b *base) handleSwap(c *gin.Context) {
	source, target := languages.Swap(c.PostForm("source"), c.PostForm("target"))

	if isHTMX(c) {
		renderHTML(c, templates.RenderLanguageSelection(b.catalog, source, target))
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "target": target})
}

// openUpload 读取表单中的 file 字段并检查大小
func (b *base) openUpload(c *gin.Context) (*multipart.FileHeader, multipart.File, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请上传文件"})
		return nil, nil, false
	}

	if file.Size > b.config.Server.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("文件太大，最大 %.0f MB", float64(b.config.Server.MaxUploadSize)/1024/1024),
		})
		return nil, nil, false
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文件失败"})
		return nil, nil, false
	}
	return file, f, true
}

// handleUploadText 文本文件解码后填入输入框，失败时输入框显示错误
func (b *base) handleUploadText(c *gin.Context) {
	file, f, ok := b.openUpload(c)
	if !ok {
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	text := ""
	if err == nil {
		text, err = inspector.DecodeText(file.Filename, data)
	}

	if err != nil {
		msg := inspector.TextErrorStatus(err)
		if isHTMX(c) {
			renderHTML(c, templates.RenderTextInput(msg))
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
		return
	}

	if isHTMX(c) {
		renderHTML(c, templates.RenderTextInput(text))
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": file.Filename, "text": text})
}
