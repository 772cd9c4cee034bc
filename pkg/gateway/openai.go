package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/z-wentao/subhashit/pkg/languages"
	"github.com/z-wentao/subhashit/pkg/models"
)

// OpenAIGateway 用 OpenAI 完成翻译、语音合成和语音识别
type OpenAIGateway struct {
	client *openai.Client
	model  string
	voice  string
	sink   AudioSink
}

// NewOpenAIGateway 创建 OpenAI 网关
func NewOpenAIGateway(apiKey, model, voice string, sink AudioSink) *OpenAIGateway {
	return NewOpenAIGatewayWithConfig(openai.DefaultConfig(apiKey), model, voice, sink)
}

// NewOpenAIGatewayWithConfig 使用自定义客户端配置（如代理地址）
func NewOpenAIGatewayWithConfig(cfg openai.ClientConfig, model, voice string, sink AudioSink) *OpenAIGateway {
	return &OpenAIGateway{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		voice:  voice,
		sink:   sink,
	}
}

func (g *OpenAIGateway) Translate(ctx context.Context, text string, targets []string) []models.TranslationRecord {
	records, err := g.translateAll(ctx, text, targets)
	if err != nil {
		log.Printf("❌ OpenAI 翻译失败: %v", err)
		return Fallback(targets, err)
	}
	return records
}

// TranslateAudio 先识别音频为文字，再翻译并合成语音
func (g *OpenAIGateway) TranslateAudio(ctx context.Context, audioPath string, targets []string) []models.TranslationRecord {
	resp, err := g.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
	})
	if err != nil {
		log.Printf("❌ 语音识别失败: %v", err)
		return Fallback(targets, fmt.Errorf("语音识别失败: %w", err))
	}
	return g.Translate(ctx, resp.Text, targets)
}

func (g *OpenAIGateway) translateAll(ctx context.Context, text string, targets []string) ([]models.TranslationRecord, error) {
	records := make([]models.TranslationRecord, 0, len(targets))
	for _, target := range targets {
		name := languages.Name(target)

		translation, err := g.translate(ctx, text, name)
		if err != nil {
			return nil, err
		}

		audioURL, err := g.speak(ctx, translation)
		if err != nil {
			return nil, err
		}

		records = append(records, models.TranslationRecord{
			Language:    name,
			Translation: translation,
			AudioFile:   audioURL,
		})
	}
	return records, nil
}

func (g *OpenAIGateway) translate(ctx context.Context, text, language string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: `You are a professional translator. Reply with a JSON object {"translation": "..."} and nothing else.`,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate the following text into %s:\n\n%s", language, text),
			},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("调用 OpenAI API 失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API 未返回结果")
	}

	content := resp.Choices[0].Message.Content
	var result struct {
		Translation string `json:"translation"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return "", fmt.Errorf("解析 AI 响应失败: %w, 原始响应: %s", err, content)
	}
	return result.Translation, nil
}

func (g *OpenAIGateway) speak(ctx context.Context, text string) (string, error) {
	speech, err := g.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.SpeechVoice(g.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return "", fmt.Errorf("语音合成失败: %w", err)
	}
	defer speech.Close()

	url, err := g.sink.PutAudio(ctx, "tts/"+uuid.NewString()+".mp3", speech)
	if err != nil {
		return "", fmt.Errorf("保存合成音频失败: %w", err)
	}
	return url, nil
}
