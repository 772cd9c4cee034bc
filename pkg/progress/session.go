package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/z-wentao/subhashit/pkg/models"
)

// Phase 控制器所处阶段
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseRunning  Phase = "running"
	PhaseTerminal Phase = "terminal"
)

// Session 一个浏览器会话的弹窗状态
type Session struct {
	Active       bool `json:"active"`
	Tick         int  `json:"tick"`
	CaptionTicks int  `json:"caption_ticks"`
	StageIndex   int  `json:"stage_index"`
	Cancelled    bool `json:"cancelled"`

	// 计时器开关，运行时据此启停真实计时器
	ProgressTimer   bool   `json:"progress_timer"`
	CaptionTimer    bool   `json:"caption_timer"`
	StartDelayArmed bool   `json:"start_delay_armed"`
	Epoch           uint64 `json:"epoch"` // 每次 Start 加一，计时器随之重建

	Result Result `json:"result"`
}

// Result 翻译结果弹窗
type Result struct {
	Open    bool                       `json:"open"`
	Pending bool                       `json:"pending"`
	Seq     uint64                     `json:"seq"`
	Kind    models.JobKind             `json:"kind"`
	Records []models.TranslationRecord `json:"records"`
	Warning string                     `json:"warning"`
}

// Phase 由状态推导出的阶段
func (s Session) Phase(maxTicks int) Phase {
	switch {
	case !s.Active:
		return PhaseIdle
	case s.Tick >= maxTicks:
		return PhaseTerminal
	}
	return PhaseRunning
}

// Accepts 序号为 seq 的翻译结果是否仍然有效
func (s Session) Accepts(seq uint64) bool {
	return s.Result.Pending && s.Result.Seq == seq
}

// Settings 控制器配置
type Settings struct {
	MaxTicks      int
	TickInterval  time.Duration
	Captions      []string
	MaxVisible    int
	CaptionBudget time.Duration // 全部字幕播放完的总时长
	StartDelay    time.Duration
	DownloadURL   string
}

// CaptionInterval 相邻两条字幕的间隔
func (st Settings) CaptionInterval() time.Duration {
	if len(st.Captions) == 0 {
		return 0
	}
	iv := st.CaptionBudget / time.Duration(len(st.Captions))
	if iv <= 0 {
		iv = time.Millisecond
	}
	return iv
}

// Validate 检查配置是否可用
func (st Settings) Validate() error {
	if st.MaxTicks <= 0 {
		return fmt.Errorf("MaxTicks 必须为正数: %d", st.MaxTicks)
	}
	if st.TickInterval <= 0 {
		return errors.New("TickInterval 必须为正数")
	}
	if st.MaxVisible <= 0 {
		return fmt.Errorf("MaxVisible 必须为正数: %d", st.MaxVisible)
	}
	if st.StartDelay < 0 || st.CaptionBudget < 0 {
		return errors.New("字幕时长不能为负数")
	}
	if st.StartDelay+st.CaptionBudget > time.Duration(st.MaxTicks)*st.TickInterval {
		return fmt.Errorf("字幕时长 %v + 启动延迟 %v 超过进度条时长 %v",
			st.CaptionBudget, st.StartDelay, time.Duration(st.MaxTicks)*st.TickInterval)
	}
	return nil
}
