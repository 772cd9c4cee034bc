package stages

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
)

//go:embed default_script.txt
var defaultScript string

// ErrEmptyScript 脚本中没有任何非空行
var ErrEmptyScript = errors.New("stage script has no lines")

// Default 内置的处理流程字幕
func Default() []string {
	return Parse(defaultScript)
}

// Parse 每个非空行成为一条字幕
// 逗号和分号替换为空格，连续空白压缩为一个空格
func Parse(raw string) []string {
	var captions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.NewReplacer(",", " ", ";", " ").Replace(line)
		if caption := strings.Join(strings.Fields(line), " "); caption != "" {
			captions = append(captions, caption)
		}
	}
	return captions
}

// Load 读取脚本文件，path 为空时使用内置脚本
func Load(path string) ([]string, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字幕脚本失败: %w", err)
	}

	captions := Parse(string(data))
	if len(captions) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyScript)
	}
	return captions, nil
}
