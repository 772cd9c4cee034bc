package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/z-wentao/subhashit/pkg/models"
)

const (
	redisKeyPrefix     = "subhashit:job:"
	redisSessionPrefix = "subhashit:session:"
)

// RedisJobStore Redis 任务存储，数据带过期时间
type RedisJobStore struct {
	client *redis.Client
	ttl    time.Duration
	ctx    context.Context
}

// NewRedisJobStore 创建 Redis 任务存储
func NewRedisJobStore(addr, password string, db int, ttl time.Duration) (*RedisJobStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	return &RedisJobStore{
		client: client,
		ttl:    ttl,
		ctx:    ctx,
	}, nil
}

// getKey 格式: "subhashit:job:{jobID}"
func (rs *RedisJobStore) getKey(jobID string) string {
	return redisKeyPrefix + jobID
}

// sessionKey 格式: "subhashit:session:{sessionID}:jobs"
func sessionKey(sessionID string) string {
	return redisSessionPrefix + sessionID + ":jobs"
}

// Save 保存任务，并以创建时间为 score 写入会话索引
// 会话索引与任务同时过期，会话结束后整组数据自然消失
func (rs *RedisJobStore) Save(job *models.TranslationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("序列化任务失败: %w", err)
	}

	index := sessionKey(job.SessionID)
	pipe := rs.client.TxPipeline()
	pipe.Set(rs.ctx, rs.getKey(job.JobID), data, rs.ttl)
	pipe.ZAdd(rs.ctx, index, redis.Z{
		Score:  float64(job.CreatedAt.UnixNano()),
		Member: job.JobID,
	})
	// 只保留最近的任务
	pipe.ZRemRangeByRank(rs.ctx, index, 0, -int64(sessionListLimit)-1)
	if rs.ttl > 0 {
		pipe.Expire(rs.ctx, index, rs.ttl)
	}
	if _, err := pipe.Exec(rs.ctx); err != nil {
		return fmt.Errorf("保存到 Redis 失败: %w", err)
	}
	return nil
}

// Get 获取任务
func (rs *RedisJobStore) Get(jobID string) (*models.TranslationJob, error) {
	data, err := rs.client.Get(rs.ctx, rs.getKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("从 Redis 获取失败: %w", err)
	}

	var job models.TranslationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("反序列化任务失败: %w", err)
	}
	return &job, nil
}

// Update 读取-修改-写回
func (rs *RedisJobStore) Update(jobID string, updateFn func(*models.TranslationJob)) error {
	job, err := rs.Get(jobID)
	if err != nil {
		return err
	}
	updateFn(job)
	return rs.Save(job)
}

// ListBySession 一次 MGET 取回会话内的任务，已过期的索引项顺带清理
func (rs *RedisJobStore) ListBySession(sessionID string) ([]*models.TranslationJob, error) {
	index := sessionKey(sessionID)
	jobIDs, err := rs.client.ZRevRange(rs.ctx, index, 0, sessionListLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("获取会话索引失败: %w", err)
	}
	if len(jobIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(jobIDs))
	for i, id := range jobIDs {
		keys[i] = rs.getKey(id)
	}
	values, err := rs.client.MGet(rs.ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("批量获取任务失败: %w", err)
	}

	jobs := make([]*models.TranslationJob, 0, len(values))
	var expired []any
	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			expired = append(expired, jobIDs[i])
			continue
		}
		var job models.TranslationJob
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return nil, fmt.Errorf("反序列化任务失败: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if len(expired) > 0 {
		rs.client.ZRem(rs.ctx, index, expired...)
	}
	return jobs, nil
}

// Delete 删除任务并移出会话索引
func (rs *RedisJobStore) Delete(jobID string) error {
	job, err := rs.Get(jobID)
	if err != nil {
		return err
	}

	pipe := rs.client.TxPipeline()
	pipe.Del(rs.ctx, rs.getKey(jobID))
	pipe.ZRem(rs.ctx, sessionKey(job.SessionID), jobID)
	if _, err := pipe.Exec(rs.ctx); err != nil {
		return fmt.Errorf("删除任务失败: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接
func (rs *RedisJobStore) Close() error {
	return rs.client.Close()
}
