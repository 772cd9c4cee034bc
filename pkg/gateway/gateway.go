package gateway

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/z-wentao/subhashit/pkg/config"
	"github.com/z-wentao/subhashit/pkg/models"
)

// Gateway 翻译网关
// 每个目标语言返回一条记录；调用失败时返回一条兜底记录，不返回 error
type Gateway interface {
	Translate(ctx context.Context, text string, targets []string) []models.TranslationRecord
	TranslateAudio(ctx context.Context, audioPath string, targets []string) []models.TranslationRecord
}

// AudioSink 保存合成的音频，返回浏览器可访问的地址
type AudioSink interface {
	PutAudio(ctx context.Context, key string, r io.Reader) (string, error)
}

// Fallback 调用失败时的兜底记录
func Fallback(targets []string, err error) []models.TranslationRecord {
	return []models.TranslationRecord{{
		Language:    strings.Join(targets, ","),
		Translation: fallbackPrefix + err.Error(),
		AudioFile:   "",
	}}
}

const fallbackPrefix = "Exception: "

// FallbackError 判断是否为兜底记录：单行且译文以 "Exception: " 开头
func FallbackError(records []models.TranslationRecord) (string, bool) {
	if len(records) == 1 && strings.HasPrefix(records[0].Translation, fallbackPrefix) {
		return records[0].Translation, true
	}
	return "", false
}

// New 按配置创建网关
func New(cfg *config.Config, sink AudioSink) (Gateway, error) {
	switch cfg.Gateway.Type {
	case "", "static":
		return NewStaticGateway(), nil
	case "http":
		return NewHTTPGateway(cfg.Gateway.URL, cfg.Gateway.Timeout()), nil
	case "openai":
		if sink == nil {
			return nil, fmt.Errorf("OpenAI 网关需要音频存储")
		}
		return NewOpenAIGateway(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Voice, sink), nil
	}
	return nil, fmt.Errorf("不支持的网关类型: %s", cfg.Gateway.Type)
}
