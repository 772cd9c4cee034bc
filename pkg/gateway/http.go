package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/z-wentao/subhashit/pkg/models"
)

// TextToSpeechRequest 后端 /text-to-speech 请求体
type TextToSpeechRequest struct {
	SourceText      string `json:"source_text"`
	TargetLanguages string `json:"target_languages"` // 逗号分隔的语言代码
}

// HTTPGateway 调用远程翻译后端
// 后端没有音频接口，音频翻译走查表
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
	audio      *StaticGateway
}

// NewHTTPGateway 创建 HTTP 网关
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		audio: NewStaticGateway(),
	}
}

// Translate 不重试，任何失败都转为兜底记录
func (g *HTTPGateway) Translate(ctx context.Context, text string, targets []string) []models.TranslationRecord {
	records, err := g.textToSpeech(ctx, text, targets)
	if err != nil {
		log.Printf("❌ 翻译后端调用失败: %v", err)
		return Fallback(targets, err)
	}
	return records
}

func (g *HTTPGateway) TranslateAudio(ctx context.Context, audioPath string, targets []string) []models.TranslationRecord {
	return g.audio.TranslateAudio(ctx, audioPath, targets)
}

func (g *HTTPGateway) textToSpeech(ctx context.Context, text string, targets []string) ([]models.TranslationRecord, error) {
	payload, err := json.Marshal(TextToSpeechRequest{
		SourceText:      text,
		TargetLanguages: strings.Join(targets, ","),
	})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/text-to-speech", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("后端返回错误: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var records []models.TranslationRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	return records, nil
}
