package queue

import (
	"context"
	"errors"

	"github.com/z-wentao/subhashit/pkg/models"
)

// ErrClosed 队列已关闭
var ErrClosed = errors.New("队列已关闭")

// Queue 把翻译请求从 HTTP 处理器交给 Worker
// 每条消息处理结束必须 Ack 或 Nack 一次
type Queue interface {
	Enqueue(job *models.TranslationJob) error

	// Dequeue 阻塞直到取到任务、ctx 取消或队列关闭（返回 ErrClosed）
	Dequeue(ctx context.Context) (*models.TranslationJob, error)

	Ack(job *models.TranslationJob) error

	// Nack requeue 为 true 时任务重新投递，Worker 停止时使用
	Nack(job *models.TranslationJob, requeue bool) error

	Close() error
}
