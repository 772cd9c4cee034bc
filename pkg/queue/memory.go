package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/z-wentao/subhashit/pkg/models"
)

// MemoryQueue 基于 Channel 的内存队列实现
type MemoryQueue struct {
	queue  chan *models.TranslationJob
	closed chan struct{}
	once   sync.Once
}

// NewMemoryQueue 创建内存队列
func NewMemoryQueue(bufferSize int) *MemoryQueue {
	return &MemoryQueue{
		queue:  make(chan *models.TranslationJob, bufferSize),
		closed: make(chan struct{}),
	}
}

// Enqueue 将任务加入队列，队列满时立即失败
func (mq *MemoryQueue) Enqueue(job *models.TranslationJob) error {
	select {
	case <-mq.closed:
		return ErrClosed
	default:
	}

	select {
	case mq.queue <- job:
		return nil
	default:
		return fmt.Errorf("队列已满 (容量 %d)", cap(mq.queue))
	}
}

// Dequeue 从队列取出任务（阻塞等待）
func (mq *MemoryQueue) Dequeue(ctx context.Context) (*models.TranslationJob, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-mq.closed:
		return nil, ErrClosed
	case job := <-mq.queue:
		return job, nil
	}
}

// Ack 内存队列无需确认
func (mq *MemoryQueue) Ack(job *models.TranslationJob) error { return nil }

// Nack 内存队列只支持重新入队
func (mq *MemoryQueue) Nack(job *models.TranslationJob, requeue bool) error {
	if !requeue {
		return nil
	}
	return mq.Enqueue(job)
}

// Len 当前排队的任务数
func (mq *MemoryQueue) Len() int {
	return len(mq.queue)
}

// Close 关闭队列
func (mq *MemoryQueue) Close() error {
	mq.once.Do(func() { close(mq.closed) })
	return nil
}
