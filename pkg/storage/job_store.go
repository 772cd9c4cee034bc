package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/z-wentao/subhashit/pkg/models"
)

// JobStore 任务存储（内存实现）
// 读写都返回副本，调用方修改不会影响存储内容
type JobStore struct {
	jobs map[string]*models.TranslationJob
	mu   sync.RWMutex
}

// NewJobStore 创建任务存储
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*models.TranslationJob),
	}
}

// Save 保存任务
func (js *JobStore) Save(job *models.TranslationJob) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	js.jobs[job.JobID] = cloneJob(job)
	return nil
}

// Get 获取任务
func (js *JobStore) Get(jobID string) (*models.TranslationJob, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	job, exists := js.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return cloneJob(job), nil
}

// Update 更新任务
func (js *JobStore) Update(jobID string, updateFn func(*models.TranslationJob)) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	updateFn(job)
	return nil
}

// ListBySession 线性扫描，内存存储只用于单机开发
func (js *JobStore) ListBySession(sessionID string) ([]*models.TranslationJob, error) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	var jobs []*models.TranslationJob
	for _, job := range js.jobs {
		if job.SessionID == sessionID {
			jobs = append(jobs, cloneJob(job))
		}
	}
	sortNewestFirst(jobs)
	if len(jobs) > sessionListLimit {
		jobs = jobs[:sessionListLimit]
	}
	return jobs, nil
}

// Delete 删除任务
func (js *JobStore) Delete(jobID string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if _, exists := js.jobs[jobID]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	delete(js.jobs, jobID)
	return nil
}

// Close 关闭存储（内存存储无需关闭）
func (js *JobStore) Close() error {
	return nil
}

func cloneJob(job *models.TranslationJob) *models.TranslationJob {
	c := *job
	c.TargetLangs = append([]string(nil), job.TargetLangs...)
	c.Records = append([]models.TranslationRecord(nil), job.Records...)
	return &c
}

func sortNewestFirst(jobs []*models.TranslationJob) {
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
}
