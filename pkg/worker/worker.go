package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/z-wentao/subhashit/pkg/gateway"
	"github.com/z-wentao/subhashit/pkg/models"
	"github.com/z-wentao/subhashit/pkg/queue"
	"github.com/z-wentao/subhashit/pkg/storage"
)

const jobTimeout = 2 * time.Minute

// Translator 翻译网关
// 失败时返回一条兜底记录，不返回 error
type Translator interface {
	Translate(ctx context.Context, text string, targets []string) []models.TranslationRecord
	TranslateAudio(ctx context.Context, audioPath string, targets []string) []models.TranslationRecord
}

// Notifier 把结果投递回浏览器会话
// 返回 false 表示结果已过期（会话已取消、关闭或有更新的请求）
type Notifier interface {
	Deliver(ctx context.Context, sessionID string, seq uint64, records []models.TranslationRecord) (bool, error)
}

// Worker 任务处理器
// 多个 Goroutine 共享同一个队列
type Worker struct {
	queue      queue.Queue
	store      storage.Store
	translator Translator
	notifier   Notifier
	count      int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker 创建 Worker，count 为并发处理的 Goroutine 数量
func NewWorker(q queue.Queue, store storage.Store, translator Translator, notifier Notifier, count int) *Worker {
	if count <= 0 {
		count = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		queue:      q,
		store:      store,
		translator: translator,
		notifier:   notifier,
		count:      count,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动 Worker
func (w *Worker) Start() {
	for i := 0; i < w.count; i++ {
		w.wg.Add(1)
		go w.run(i + 1)
	}
}

// Stop 停止 Worker 并等待正在处理的任务结束
func (w *Worker) Stop() {
	log.Println("正在停止 Worker...")
	w.cancel()
	w.wg.Wait()
	log.Println("✓ Worker 已停止")
}

func (w *Worker) run(id int) {
	defer w.wg.Done()
	log.Printf("Worker #%d 已启动，等待任务...", id)

	for {
		job, err := w.queue.Dequeue(w.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrClosed) {
				return
			}
			log.Printf("⚠️ 从队列获取任务失败: %v", err)
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		w.processJob(job)
	}
}

// processJob 处理单个任务
func (w *Worker) processJob(job *models.TranslationJob) {
	// 入队后会话已取消：直接确认，不调用网关
	if current, err := w.store.Get(job.JobID); err == nil && current.Status.Finished() {
		log.Printf("任务 %s 已是 %s 状态，跳过", job.JobID, current.Status)
		w.queue.Ack(job)
		return
	}

	log.Printf("📝 开始处理任务: %s (%s → %v)", job.JobID, job.Kind, job.TargetLangs)
	w.store.Update(job.JobID, func(j *models.TranslationJob) {
		j.Status = models.StatusProcessing
	})

	ctx, cancel := context.WithTimeout(w.ctx, jobTimeout)
	defer cancel()

	startTime := time.Now()
	records, err := w.translate(ctx, job)
	if w.ctx.Err() != nil {
		w.requeue(job)
		return
	}
	if err != nil {
		log.Printf("❌ 任务 %s 失败: %v", job.JobID, err)
		w.finish(job, models.StatusFailed, nil, err.Error())
		return
	}

	accepted, err := w.notifier.Deliver(ctx, job.SessionID, job.Seq, records)
	if err != nil {
		log.Printf("⚠️ 任务 %s 结果无法投递: %v", job.JobID, err)
	}
	if !accepted {
		log.Printf("任务 %s 结果已过期，丢弃", job.JobID)
		w.finish(job, models.StatusDiscarded, records, "")
		return
	}

	status, errMsg := models.StatusCompleted, ""
	if msg, failed := gateway.FallbackError(records); failed {
		status, errMsg = models.StatusFailed, msg
	}
	log.Printf("✓ 任务 %s 完成，%d 条结果，耗时 %.2f 秒", job.JobID, len(records), time.Since(startTime).Seconds())
	w.finish(job, status, records, errMsg)
}

func (w *Worker) translate(ctx context.Context, job *models.TranslationJob) ([]models.TranslationRecord, error) {
	switch job.Kind {
	case models.KindText:
		return w.translator.Translate(ctx, job.SourceText, job.TargetLangs), nil
	case models.KindAudio:
		return w.translator.TranslateAudio(ctx, job.FilePath, job.TargetLangs), nil
	}
	return nil, fmt.Errorf("未知的任务类型: %q", job.Kind)
}

// requeue Worker 停止时中断的任务放回队列，由其他实例继续处理
func (w *Worker) requeue(job *models.TranslationJob) {
	log.Printf("⚠️ Worker 停止，任务 %s 放回队列", job.JobID)
	w.store.Update(job.JobID, func(j *models.TranslationJob) {
		j.Status = models.StatusPending
	})
	if err := w.queue.Nack(job, true); err != nil {
		log.Printf("❌ 任务 %s 放回队列失败: %v", job.JobID, err)
	}
}

func (w *Worker) finish(job *models.TranslationJob, status models.JobStatus, records []models.TranslationRecord, errMsg string) {
	err := w.store.Update(job.JobID, func(j *models.TranslationJob) {
		j.Status = status
		j.Records = records
		j.Error = errMsg
		j.CompletedAt = time.Now()
	})
	if err != nil {
		log.Printf("⚠️ 更新任务 %s 失败: %v", job.JobID, err)
	}
	if err := w.queue.Ack(job); err != nil {
		log.Printf("⚠️ 确认消息失败: %v", err)
	}
}
