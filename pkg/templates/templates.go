package templates

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/z-wentao/subhashit/pkg/models"
)

// FormatTime 格式化时间
func FormatTime(t time.Time) string {
	diff := time.Since(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	}
	if diff < 24*time.Hour {
		return fmt.Sprintf("%d h ago", int(diff.Hours()))
	}
	return t.Format("2006-01-02 15:04")
}

var statusText = map[models.JobStatus]string{
	models.StatusPending:    "Queued",
	models.StatusProcessing: "Translating",
	models.StatusCompleted:  "Completed",
	models.StatusFailed:     "Failed",
	models.StatusCancelled:  "Cancelled",
	models.StatusDiscarded:  "Discarded",
}

// kindIcon 任务类型图标
func kindIcon(kind models.JobKind) string {
	if kind == models.KindAudio {
		return "🎵"
	}
	return "📝"
}

// RenderJobCard 渲染任务卡片
func RenderJobCard(job *models.TranslationJob) template.HTML {
	status := statusText[job.Status]
	if status == "" {
		status = "Unknown"
	}

	spinner := ""
	if job.Status == models.StatusProcessing {
		spinner = "<span>⏳</span>"
	}

	source := job.Filename
	if job.Kind == models.KindText {
		source = truncate(job.SourceText, 60)
	}

	detail := ""
	switch {
	case job.Status == models.StatusFailed && job.Error != "":
		detail = fmt.Sprintf(`<p class="job-error">%s</p>`, template.HTMLEscapeString(job.Error))
	case job.Status == models.StatusCompleted:
		detail = string(renderRecordTable(job.Kind, job.Records))
	}

	html := fmt.Sprintf(`
<div class="job-card" data-job-id="%s" data-status="%s" id="job-%s">
	<p><strong>%s %s</strong> %s</p>
	<p>%s | → %s | %s</p>
	%s
	<button hx-delete="/api/jobs/%s" hx-confirm="Delete this job?" hx-target="#job-%s" hx-swap="outerHTML">🗑️ Delete</button>
</div>`,
		job.JobID,
		job.Status,
		job.JobID,
		kindIcon(job.Kind),
		template.HTMLEscapeString(source),
		spinner,
		status,
		template.HTMLEscapeString(strings.Join(job.TargetLangs, ", ")),
		FormatTime(job.CreatedAt),
		detail,
		job.JobID,
		job.JobID,
	)

	return template.HTML(html)
}

// RenderJobsList 渲染任务列表
func RenderJobsList(jobs []*models.TranslationJob) template.HTML {
	if len(jobs) == 0 {
		return template.HTML("<p>No translations yet</p>")
	}

	var html strings.Builder
	for _, job := range jobs {
		html.WriteString(string(RenderJobCard(job)))
	}
	return template.HTML(html.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
