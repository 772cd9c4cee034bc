package progress

import "github.com/z-wentao/subhashit/pkg/models"

// RowState 字幕行状态
type RowState string

const (
	RowCompleted   RowState = "completed"
	RowInProgress  RowState = "in-progress"
	RowPending     RowState = "pending"
	RowPlaceholder RowState = "placeholder"
)

// StageRow 字幕窗口中的一行
type StageRow struct {
	Index   int      `json:"index"`
	Caption string   `json:"caption"`
	State   RowState `json:"state"`
}

// ResultView 翻译结果弹窗的渲染数据
type ResultView struct {
	Open    bool                       `json:"open"`
	Pending bool                       `json:"pending"`
	Kind    models.JobKind             `json:"kind"`
	Records []models.TranslationRecord `json:"records"`
	Warning string                     `json:"warning"`
}

// RenderModel 页面渲染所需的全部数据
type RenderModel struct {
	Phase             Phase      `json:"phase"`
	OverlayVisible    bool       `json:"overlay_visible"`
	AnimationsVisible bool       `json:"animations_visible"`
	Autoplay          bool       `json:"autoplay"`
	Tick              int        `json:"tick"`
	MaxTicks          int        `json:"max_ticks"`
	FillPercent       int        `json:"fill_percent"`
	CancelVisible     bool       `json:"cancel_visible"`
	DownloadVisible   bool       `json:"download_visible"`
	DownloadURL       string     `json:"download_url"`
	Stages            []StageRow `json:"stages"`
	StageIndex        int        `json:"stage_index"`

	ProgressTimerEnabled bool `json:"progress_timer_enabled"`
	CaptionTimerEnabled  bool `json:"caption_timer_enabled"`
	StartDelayArmed      bool `json:"start_delay_armed"`

	Result ResultView `json:"result"`
}

// Render 把状态投影为渲染数据（纯函数）
func Render(s Session, st Settings) RenderModel {
	finished := s.Tick >= st.MaxTicks
	return RenderModel{
		Phase:             s.Phase(st.MaxTicks),
		OverlayVisible:    s.Active,
		AnimationsVisible: s.Active,
		Autoplay:          s.Active,
		Tick:              s.Tick,
		MaxTicks:          st.MaxTicks,
		FillPercent:       FillPercent(s.Tick, st.MaxTicks),
		CancelVisible:     s.Active && !finished,
		DownloadVisible:   s.Active && finished,
		DownloadURL:       st.DownloadURL,
		Stages:            StageWindow(st.Captions, s.CaptionTicks, st.MaxVisible),
		StageIndex:        s.StageIndex,

		ProgressTimerEnabled: s.ProgressTimer,
		CaptionTimerEnabled:  s.CaptionTimer,
		StartDelayArmed:      s.StartDelayArmed,

		Result: ResultView{
			Open:    s.Result.Open,
			Pending: s.Result.Pending,
			Kind:    s.Result.Kind,
			Records: s.Result.Records,
			Warning: s.Result.Warning,
		},
	}
}

// FillPercent 进度条宽度 min(100, floor(tick/maxTicks*100))
// 整数运算，避免浮点误差
func FillPercent(tick, maxTicks int) int {
	if maxTicks <= 0 || tick <= 0 {
		return 0
	}
	return min(100, tick*100/maxTicks)
}

// WindowStart 字幕窗口的起始行
func WindowStart(step, total, maxVisible int) int {
	switch {
	case step <= 2:
		return 0
	case step >= total-2:
		return max(0, total-maxVisible)
	}
	return step - 2
}

// StageWindow 以当前字幕为中心的滚动窗口，不足 maxVisible 行时用占位行补齐
func StageWindow(captions []string, captionTicks, maxVisible int) []StageRow {
	total := len(captions)
	step := min(captionTicks, total)
	start := WindowStart(step, total, maxVisible)
	end := min(start+maxVisible, total)

	rows := make([]StageRow, 0, maxVisible)
	for i := start; i < end; i++ {
		state := RowPending
		switch {
		case i < step:
			state = RowCompleted
		case i == step:
			state = RowInProgress
		}
		rows = append(rows, StageRow{Index: i, Caption: captions[i], State: state})
	}
	for len(rows) < maxVisible {
		rows = append(rows, StageRow{Index: -1, State: RowPlaceholder})
	}
	return rows
}
