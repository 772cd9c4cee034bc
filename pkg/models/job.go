package models

import "time"

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
	StatusDiscarded  JobStatus = "discarded"
)

// Finished 任务是否已结束（不会再被 Worker 处理）
func (s JobStatus) Finished() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusDiscarded:
		return true
	}
	return false
}

type JobKind string

const (
	KindText  JobKind = "text"
	KindAudio JobKind = "audio"
)

// TranslationRecord 翻译结果中的一行：语言、译文、音频
type TranslationRecord struct {
	Language    string `json:"language"`
	Translation string `json:"translation"`
	AudioFile   string `json:"audio_file"`
}

// HasAudio 是否有可播放的音频
func (r TranslationRecord) HasAudio() bool {
	return r.AudioFile != ""
}

type TranslationJob struct {
	JobID       string              `json:"job_id"`
	SessionID   string              `json:"session_id"`
	Seq         uint64              `json:"seq"` // 会话内的请求序号，用于丢弃过期结果
	Kind        JobKind             `json:"kind"`
	SourceText  string              `json:"source_text"`
	SourceLang  string              `json:"source_lang"`
	TargetLangs []string            `json:"target_langs"`
	Filename    string              `json:"filename"`
	FilePath    string              `json:"file_path"`
	Status      JobStatus           `json:"status"`
	Records     []TranslationRecord `json:"records"`
	Error       string              `json:"error"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt time.Time           `json:"completed_at"`

	// RabbitMQ 相关（不序列化到 JSON）
	DeliveryTag      uint64 `json:"-"`
	RabbitMQDelivery any    `json:"-"`
}

// MediaInfo 上传媒体文件的元数据
type MediaInfo struct {
	Filename        string  `json:"filename"`
	DurationSeconds float64 `json:"duration_seconds"`
	SizeBytes       int64   `json:"size_bytes"`
	VideoCodec      string  `json:"video_codec,omitempty"`
	AudioCodec      string  `json:"audio_codec,omitempty"`
}

// SizeMB 以 MB 为单位的大小，保留两位小数
func (m MediaInfo) SizeMB() float64 {
	return round2(float64(m.SizeBytes) / (1024 * 1024))
}

// RoundedDuration 保留两位小数的时长
func (m MediaInfo) RoundedDuration() float64 {
	return round2(m.DurationSeconds)
}

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}
