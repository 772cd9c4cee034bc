package inspector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Prober 读取媒体容器元数据
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// ProbeResult 探测结果
type ProbeResult struct {
	DurationSeconds float64
	VideoCodec      string
	AudioCodec      string
}

// FFProbe 调用 ffprobe 命令行
type FFProbe struct {
	Binary string
}

// NewFFProbe 创建 ffprobe 探测器，binary 为空时从 PATH 查找
func NewFFProbe(binary string) *FFProbe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFProbe{Binary: binary}
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecName string `json:"codec_name"`
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// Probe 执行 ffprobe -print_format json -show_format -show_streams
func (p *FFProbe) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, p.Binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe 执行失败: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	return parseFFProbe(stdout.Bytes())
}

func parseFFProbe(output []byte) (*ProbeResult, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("解析 ffprobe 输出失败: %w", err)
	}

	if out.Format.Duration == "" {
		return nil, fmt.Errorf("ffprobe 未返回时长信息")
	}
	duration, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("解析时长失败: %w (output: %s)", err, out.Format.Duration)
	}

	result := &ProbeResult{DurationSeconds: duration}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if result.VideoCodec == "" {
				result.VideoCodec = s.CodecName
			}
		case "audio":
			if result.AudioCodec == "" {
				result.AudioCodec = s.CodecName
			}
		}
	}
	return result, nil
}
