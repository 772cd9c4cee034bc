package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/z-wentao/subhashit/pkg/gateway"
	"github.com/z-wentao/subhashit/pkg/models"
)

// handleTextToSpeech 模拟翻译后端，按查表结果应答
func handleTextToSpeech(c *gin.Context) {
	var req gateway.TextToSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
		return
	}

	records := make([]models.TranslationRecord, 0)
	for _, target := range strings.Split(req.TargetLanguages, ",") {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		records = append(records, gateway.LookupText(req.SourceText, target))
	}

	c.JSON(http.StatusOK, records)
}
