package inspector

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/z-wentao/subhashit/pkg/models"
)

// AudioUploadedMessage 音频上传成功提示
const AudioUploadedMessage = "✅ Audio uploaded. Click 'Translate Audio' to proceed."

// DecodeError 上传文件无法解码
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Inspector 处理上传文件
type Inspector struct {
	prober    Prober
	uploadDir string
}

// New 创建 Inspector，uploadDir 保存需要留存的音频文件
func New(prober Prober, uploadDir string) (*Inspector, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &Inspector{prober: prober, uploadDir: uploadDir}, nil
}

// InspectVideo 把视频写入临时文件后探测时长和大小
// 临时文件无论成功失败都会被删除
func (i *Inspector) InspectVideo(ctx context.Context, filename string, r io.Reader) (models.MediaInfo, error) {
	info := models.MediaInfo{Filename: filename}

	tmp, err := os.CreateTemp("", "subhashit-video-*"+filepath.Ext(filename))
	if err != nil {
		return info, fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			log.Printf("⚠️ 删除临时文件失败: %v", err)
		}
	}()

	size, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return info, &DecodeError{Filename: filename, Err: fmt.Errorf("写入临时文件失败: %w", err)}
	}
	info.SizeBytes = size

	result, err := i.prober.Probe(ctx, tmp.Name())
	if err != nil {
		return info, &DecodeError{Filename: filename, Err: err}
	}

	info.DurationSeconds = result.DurationSeconds
	info.VideoCodec = result.VideoCodec
	info.AudioCodec = result.AudioCodec
	return info, nil
}

// SaveAudio 保存音频供后续翻译使用，返回文件路径
func (i *Inspector) SaveAudio(filename string, r io.Reader) (string, error) {
	path := filepath.Join(i.uploadDir, uuid.NewString()+filepath.Ext(filename))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	return path, nil
}

// DecodeText 文件名需包含 "txt"，内容须为 UTF-8
func DecodeText(filename string, data []byte) (string, error) {
	if !strings.Contains(strings.ToLower(filename), "txt") {
		return "", &DecodeError{Filename: filename, Err: fmt.Errorf("only .txt files are supported")}
	}
	if !utf8.Valid(data) {
		return "", &DecodeError{Filename: filename, Err: fmt.Errorf("'utf-8' codec can't decode file")}
	}
	return string(data), nil
}

// VideoStatus 视频上传成功的提示行
func VideoStatus(info models.MediaInfo) []string {
	return []string{
		fmt.Sprintf("Video file '%s' uploaded successfully!", info.Filename),
		fmt.Sprintf("📏 Duration: %s seconds", formatNumber(info.RoundedDuration())),
		fmt.Sprintf("📦 Size: %s MB", formatNumber(info.SizeMB())),
	}
}

// VideoErrorStatus 视频处理失败的提示
func VideoErrorStatus(err error) string {
	return fmt.Sprintf("⚠️ Error processing video: %v", err)
}

// TextErrorStatus 文本文件读取失败的提示
func TextErrorStatus(err error) string {
	return fmt.Sprintf("Error reading file: %v", err)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
