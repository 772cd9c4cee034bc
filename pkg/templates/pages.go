package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed pages/*.html
var pageFS embed.FS

var pages = template.Must(template.ParseFS(pageFS, "pages/*.html"))

// 页面模板名
const (
	PageIndex     = "index.html"
	PageSimple    = "simple.html"
	PageAnimation = "animation.html"
)

// PageData 页面渲染数据，各区域为预先渲染好的片段
type PageData struct {
	Title     string
	Languages template.HTML
	TextInput template.HTML
	Output    template.HTML
	Overlay   template.HTML
	Result    template.HTML
}

// RenderPage 渲染整页
func RenderPage(w io.Writer, name string, data PageData) error {
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("渲染页面 %s 失败: %w", name, err)
	}
	return nil
}
