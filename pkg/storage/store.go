package storage

import (
	"errors"

	"github.com/z-wentao/subhashit/pkg/models"
)

// ErrNotFound 任务不存在
var ErrNotFound = errors.New("任务不存在")

// sessionListLimit 每个会话最多返回的任务数
const sessionListLimit = 50

// Store 翻译任务记录
// 实现需返回副本；Update 的回调在持有任务时执行，不能再调用 Store
type Store interface {
	Save(job *models.TranslationJob) error

	// Get 不存在时返回包装了 ErrNotFound 的错误
	Get(jobID string) (*models.TranslationJob, error)

	Update(jobID string, updateFn func(*models.TranslationJob)) error

	// ListBySession 列出某个浏览器会话最近的任务（按创建时间倒序）
	ListBySession(sessionID string) ([]*models.TranslationJob, error)

	Delete(jobID string) error

	Close() error
}
