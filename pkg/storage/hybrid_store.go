package storage

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/z-wentao/subhashit/pkg/models"
)

const (
	syncBatchSize     = 50
	syncFlushInterval = 5 * time.Second
)

// HybridJobStore 混合存储：Redis（热数据） + 数据库（冷数据）
// 立即写缓存，任务结束后异步批量落库
type HybridJobStore struct {
	cache     Store
	db        Store
	syncQueue chan *models.TranslationJob
	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// NewHybridJobStore 创建混合存储
func NewHybridJobStore(cache, db Store) *HybridJobStore {
	store := &HybridJobStore{
		cache:     cache,
		db:        db,
		syncQueue: make(chan *models.TranslationJob, 100),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}

	go store.syncWorker()

	log.Println("✓ 混合存储初始化成功（缓存 + 数据库）")
	return store
}

// Save 写缓存；已结束的任务同时排队落库
func (s *HybridJobStore) Save(job *models.TranslationJob) error {
	if err := s.cache.Save(job); err != nil {
		log.Printf("⚠️ 缓存写入失败: %v", err)
	}
	if job.Status.Finished() {
		s.asyncSyncToDB(job)
	}
	return nil
}

// Get 优先缓存，未命中查数据库并回写缓存
func (s *HybridJobStore) Get(jobID string) (*models.TranslationJob, error) {
	job, err := s.cache.Get(jobID)
	if err == nil {
		return job, nil
	}

	job, err = s.db.Get(jobID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Save(job); err != nil {
		log.Printf("⚠️ 回写缓存失败: %v", err)
	}
	return job, nil
}

// Update 只更新缓存，任务结束时落库
func (s *HybridJobStore) Update(jobID string, updateFn func(*models.TranslationJob)) error {
	var finished *models.TranslationJob
	err := s.cache.Update(jobID, func(job *models.TranslationJob) {
		updateFn(job)
		if job.Status.Finished() {
			finished = cloneJob(job)
		}
	})
	if err != nil {
		log.Printf("⚠️ 缓存更新失败: %v, 尝试更新数据库", err)
		return s.db.Update(jobID, updateFn)
	}

	if finished != nil {
		s.asyncSyncToDB(finished)
	}
	return nil
}

// ListBySession 缓存为空时查数据库（缓存过期后会话仍然有效的情况）
func (s *HybridJobStore) ListBySession(sessionID string) ([]*models.TranslationJob, error) {
	jobs, err := s.cache.ListBySession(sessionID)
	if err != nil {
		log.Printf("⚠️ 缓存列表查询失败: %v, 降级到数据库", err)
		return s.db.ListBySession(sessionID)
	}
	if len(jobs) == 0 {
		return s.db.ListBySession(sessionID)
	}
	return jobs, nil
}

// Delete 同时删除缓存和数据库中的数据
func (s *HybridJobStore) Delete(jobID string) error {
	cacheErr := s.cache.Delete(jobID)
	dbErr := s.db.Delete(jobID)

	// 两边都没有才算不存在
	if errors.Is(cacheErr, ErrNotFound) && errors.Is(dbErr, ErrNotFound) {
		return dbErr
	}
	if dbErr != nil && !errors.Is(dbErr, ErrNotFound) {
		log.Printf("⚠️ 数据库删除失败: %v", dbErr)
		return dbErr
	}
	return nil
}

// Close 刷出剩余同步任务后关闭两个存储
func (s *HybridJobStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		log.Printf("⚠️ 同步队列清空超时，剩余 %d 个任务", len(s.syncQueue))
	}

	cacheErr := s.cache.Close()
	dbErr := s.db.Close()

	log.Println("✓ 混合存储已关闭")
	return errors.Join(cacheErr, dbErr)
}

// asyncSyncToDB 队列满时退化为同步写入
func (s *HybridJobStore) asyncSyncToDB(job *models.TranslationJob) {
	select {
	case s.syncQueue <- job:
	default:
		log.Printf("⚠️ 同步队列已满，同步写入数据库")
		if err := s.db.Save(job); err != nil {
			log.Printf("❌ 同步写入数据库失败: %v", err)
		}
	}
}

// syncWorker 批量写入（满 50 条或每 5 秒）
func (s *HybridJobStore) syncWorker() {
	defer close(s.done)

	ticker := time.NewTicker(syncFlushInterval)
	defer ticker.Stop()

	batch := make([]*models.TranslationJob, 0, syncBatchSize)
	flush := func() {
		s.batchSave(batch)
		batch = batch[:0]
	}

	for {
		select {
		case job := <-s.syncQueue:
			batch = append(batch, job)
			if len(batch) >= syncBatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-s.stopCh:
			// 取出已排队的任务再退出
			for {
				select {
				case job := <-s.syncQueue:
					batch = append(batch, job)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *HybridJobStore) batchSave(jobs []*models.TranslationJob) {
	if len(jobs) == 0 {
		return
	}

	successCount := 0
	for _, job := range jobs {
		if err := s.db.Save(job); err != nil {
			log.Printf("❌ 同步任务失败: %s, 错误: %v", job.JobID, err)
			continue
		}
		successCount++
	}

	log.Printf("✓ 成功同步 %d/%d 个任务到数据库", successCount, len(jobs))
}
