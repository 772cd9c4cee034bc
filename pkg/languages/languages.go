package languages

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput 没有可翻译的文本或文件
var ErrMissingInput = errors.New("missing input")

// Language 下拉框中的一个选项
type Language struct {
	Code  string `json:"value"`
	Label string `json:"label"`
}

// Catalog 一个页面使用的源语言、目标语言列表及默认选中项
type Catalog struct {
	Source        []Language `json:"source"`
	Target        []Language `json:"target"`
	DefaultSource string     `json:"default_source"`
	DefaultTarget string     `json:"default_target"`
}

var indian = []Language{
	{"hi", "Hindi (हिन्दी)"},
	{"ta", "Tamil (தமிழ்)"},
	{"bn", "Bengali (বাংলা)"},
	{"te", "Telugu (తెలుగు)"},
	{"mr", "Marathi (मराठी)"},
	{"gu", "Gujarati (ગુજરાતી)"},
	{"kn", "Kannada (ಕನ್ನಡ)"},
	{"ml", "Malayalam (മലയാളം)"},
	{"pa", "Punjabi (ਪੰਜਾਬੀ)"},
	{"ur", "Urdu (اردو)"},
}

var major = []Language{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"zh", "Chinese"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"ru", "Russian"},
	{"ar", "Arabic"},
}

// Full 完整页面：目标语言带 "Default" 选项
func Full() Catalog {
	target := join([]Language{{"df", "Default"}}, indian)
	return Catalog{
		Source:        join(major, target),
		Target:        target,
		DefaultSource: "en",
		DefaultTarget: "df",
	}
}

// Simple 简化页面：只列出常用的五种源语言
func Simple() Catalog {
	return Catalog{
		Source:        join(major[:5], indian),
		Target:        join(indian),
		DefaultSource: "en",
		DefaultTarget: "hi",
	}
}

func join(lists ...[]Language) []Language {
	var out []Language
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Label 查找代码对应的显示名，找不到时原样返回代码
func Label(list []Language, code string) string {
	for _, l := range list {
		if l.Code == code {
			return l.Label
		}
	}
	return code
}

// Swap 交换源语言和目标语言
func Swap(source, target string) (string, string) {
	return target, source
}

// DemoTranslation 简化页面展示的占位译文
func DemoTranslation(c Catalog, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrMissingInput
	}
	return fmt.Sprintf("[Demo Translation from %s to %s]\n\n%s\n\n→ This is where your backend would process the translation using your AI models.",
		Label(c.Source, source), Label(c.Target, target), text), nil
}

// Name 语言的英文名（去掉括号中的本地文字），"df" 按 Hindi 处理
func Name(code string) string {
	if code == "df" {
		code = "hi"
	}
	label := Label(Full().Source, code)
	if i := strings.Index(label, " ("); i > 0 {
		return label[:i]
	}
	return label
}
