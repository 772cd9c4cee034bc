package gateway

import (
	"context"

	"github.com/z-wentao/subhashit/pkg/models"
)

type textEntry struct {
	language    string
	translation string // 为空表示原文回显
	audio       string
}

type audioEntry struct {
	language string
	audio    string
}

var textTable = map[string]textEntry{
	"df": {"Hindi", "", "/assets/hindi.mp3"},
	"ta": {"Tamil", "வணக்கம் உலகம்", "/assets/tamil.mp3"},
	"gu": {"Gujarati", "હેલો વિશ્વ", "/assets/gujarati.mp3"},
}

var audioTable = map[string]audioEntry{
	"hi": {"Hindi", "/assets/hindi_audio.mp3"},
	"ta": {"Tamil", "/assets/tamil_audio.mp3"},
	"gu": {"Gujarati", "/assets/gujarati_audio.mp3"},
}

// StaticGateway 固定查表的演示网关
type StaticGateway struct{}

// NewStaticGateway 创建查表网关
func NewStaticGateway() *StaticGateway {
	return &StaticGateway{}
}

// LookupText 单个目标语言的文本翻译
func LookupText(text, target string) models.TranslationRecord {
	e, ok := textTable[target]
	if !ok {
		return models.TranslationRecord{Language: "Unknown", Translation: "N/A", AudioFile: ""}
	}
	translation := e.translation
	if translation == "" {
		translation = text
	}
	return models.TranslationRecord{Language: e.language, Translation: translation, AudioFile: e.audio}
}

// LookupAudio 单个目标语言的音频翻译
func LookupAudio(target string) models.TranslationRecord {
	e, ok := audioTable[target]
	if !ok {
		return models.TranslationRecord{Language: "Unknown", AudioFile: ""}
	}
	return models.TranslationRecord{Language: e.language, AudioFile: e.audio}
}

func (g *StaticGateway) Translate(ctx context.Context, text string, targets []string) []models.TranslationRecord {
	records := make([]models.TranslationRecord, 0, len(targets))
	for _, target := range targets {
		records = append(records, LookupText(text, target))
	}
	return records
}

func (g *StaticGateway) TranslateAudio(ctx context.Context, audioPath string, targets []string) []models.TranslationRecord {
	records := make([]models.TranslationRecord, 0, len(targets))
	for _, target := range targets {
		records = append(records, LookupAudio(target))
	}
	return records
}
