// Package session 管理浏览器会话与其进度控制器
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/z-wentao/subhashit/pkg/models"
	"github.com/z-wentao/subhashit/pkg/progress"
	"github.com/z-wentao/subhashit/pkg/storage"
)

// ErrNotFound 会话不存在或已过期
var ErrNotFound = errors.New("session not found")

const janitorInterval = time.Minute

type entry struct {
	id       string
	ctrl     *progress.Controller
	seq      uint64
	jobs     map[uint64]string // seq → job_id
	lastSeen time.Time
}

// Manager 会话管理器
// 每个会话一个 progress.Controller，闲置超过 TTL 的会话被回收
type Manager struct {
	settings progress.Settings
	tokens   *TokenService
	store    storage.Store
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*entry

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager 创建会话管理器并启动回收 Goroutine
func NewManager(settings progress.Settings, tokens *TokenService, store storage.Store) (*Manager, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("进度配置无效: %w", err)
	}

	m := &Manager{
		settings: settings,
		tokens:   tokens,
		store:    store,
		ttl:      tokens.TTL(),
		sessions: make(map[string]*entry),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go m.janitor()
	return m, nil
}

// Settings 控制器配置
func (m *Manager) Settings() progress.Settings {
	return m.settings
}

// Resolve 根据令牌找到会话；令牌无效时新建会话并签发新令牌
// 令牌有效但会话已被回收（例如服务重启）时沿用原会话 ID 重建
func (m *Manager) Resolve(token string) (string, string, error) {
	id := ""
	if token != "" {
		if claims, err := m.tokens.Validate(token); err == nil {
			id = claims.SessionID
		}
	}

	fresh := id == ""
	if fresh {
		id = uuid.New().String()
	}

	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok {
		var err error
		e, err = m.newEntry(id)
		if err != nil {
			m.mu.Unlock()
			return "", "", err
		}
		m.sessions[id] = e
	}
	e.lastSeen = time.Now()
	m.mu.Unlock()

	if !fresh {
		return id, token, nil
	}

	signed, err := m.tokens.Issue(id)
	if err != nil {
		return "", "", err
	}
	log.Printf("✓ 新会话: %s", id)
	return id, signed, nil
}

// newEntry 调用方持有 m.mu
func (m *Manager) newEntry(id string) (*entry, error) {
	e := &entry{id: id, jobs: make(map[uint64]string)}
	ctrl, err := progress.NewController(m.settings, progress.WithInvalidateHook(func(seq uint64) {
		m.cancelJob(e, seq)
	}))
	if err != nil {
		return nil, fmt.Errorf("创建进度控制器失败: %w", err)
	}
	e.ctrl = ctrl
	return e, nil
}

// Controller 会话的进度控制器
func (m *Manager) Controller(id string) (*progress.Controller, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.ctrl, nil
}

func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// Touch 刷新会话的活跃时间
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = time.Now()
	}
}

// Reserve 为新的翻译任务分配序号
func (m *Manager) Reserve(id, jobID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.seq++
	e.jobs[e.seq] = jobID
	return e.seq, nil
}

// Release 撤销未能派发的序号
func (m *Manager) Release(id string, seq uint64) {
	e, err := m.lookup(id)
	if err != nil {
		return
	}
	m.takeJob(e, seq)
}

// Deliver 把翻译结果投递给会话
// 会话已不存在，或序号已被取消、关闭、更新的请求顶替时返回 false
func (m *Manager) Deliver(ctx context.Context, sessionID string, seq uint64, records []models.TranslationRecord) (bool, error) {
	e, err := m.lookup(sessionID)
	if err != nil {
		return false, nil
	}

	tr, err := e.ctrl.Apply(ctx, progress.Event{
		Kind:    progress.EventTranslationArrived,
		Seq:     seq,
		Records: records,
	})
	if err != nil {
		return false, fmt.Errorf("投递结果失败: %w", err)
	}

	m.takeJob(e, seq)
	return tr.Before.Accepts(seq), nil
}

// takeJob 会话被回收后仍可调用
func (m *Manager) takeJob(e *entry, seq uint64) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobID := e.jobs[seq]
	delete(e.jobs, seq)
	return jobID
}

// cancelJob 请求失效时把仍在排队的任务标记为已取消
func (m *Manager) cancelJob(e *entry, seq uint64) {
	jobID := m.takeJob(e, seq)
	if jobID == "" || m.store == nil {
		return
	}

	err := m.store.Update(jobID, func(job *models.TranslationJob) {
		if job.Status == models.StatusPending {
			job.Status = models.StatusCancelled
			job.CompletedAt = time.Now()
		}
	})
	if err != nil {
		log.Printf("⚠️ 取消任务 %s 失败: %v", jobID, err)
	}
}

// Len 当前会话数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close 关闭全部会话
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.done

	m.mu.Lock()
	entries := make([]*entry, 0, len(m.sessions))
	for id, e := range m.sessions {
		entries = append(entries, e)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.ctrl.Close()
	}
	log.Printf("✓ 已关闭 %d 个会话", len(entries))
}

func (m *Manager) janitor() {
	defer close(m.done)

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case now := <-ticker.C:
			m.evict(now)
		}
	}
}

// evict 回收闲置超过 TTL 的会话
func (m *Manager) evict(now time.Time) int {
	m.mu.Lock()
	var expired []*entry
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.ttl {
			expired = append(expired, e)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, e := range expired {
		e.ctrl.Close()
	}
	if len(expired) > 0 {
		log.Printf("回收 %d 个过期会话", len(expired))
	}
	return len(expired)
}
