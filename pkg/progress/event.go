package progress

import "github.com/z-wentao/subhashit/pkg/models"

// EventKind 事件类型（封闭集合）
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventCancel
	EventClose
	EventDownloadClick
	EventTick
	EventTranslationDispatched
	EventTranslationArrived
	EventCloseResult
	EventMissingInput
)

var eventNames = map[EventKind]string{
	EventStart:                 "start",
	EventCancel:                "cancel",
	EventClose:                 "close",
	EventDownloadClick:         "download",
	EventTick:                  "tick",
	EventTranslationDispatched: "translation_dispatched",
	EventTranslationArrived:    "translation_arrived",
	EventCloseResult:           "close_result",
	EventMissingInput:          "missing_input",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEventKind 解析浏览器可直接触发的事件名
func ParseEventKind(name string) (EventKind, bool) {
	switch name {
	case "start":
		return EventStart, true
	case "cancel":
		return EventCancel, true
	case "close":
		return EventClose, true
	case "download":
		return EventDownloadClick, true
	case "close_result":
		return EventCloseResult, true
	}
	return 0, false
}

// TickSource 计时事件来源
type TickSource int

const (
	SourceProgress TickSource = iota + 1
	SourceCaption
	SourceStartDelay
)

// Event 控制器事件
type Event struct {
	Kind    EventKind
	Source  TickSource                 // EventTick
	Seq     uint64                     // EventTranslationDispatched / EventTranslationArrived
	JobKind models.JobKind             // EventTranslationDispatched / EventMissingInput
	Records []models.TranslationRecord // EventTranslationArrived
	Warning string                     // EventMissingInput
}

// Tick 构造计时事件
func Tick(source TickSource) Event {
	return Event{Kind: EventTick, Source: source}
}
