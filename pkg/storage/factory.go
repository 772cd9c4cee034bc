package storage

import (
	"fmt"

	"github.com/z-wentao/subhashit/pkg/config"
)

// New 按配置创建任务存储
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewJobStore(), nil

	case "redis":
		return NewRedisJobStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL())

	case "postgres":
		return NewPostgresJobStore(cfg.Postgres.DSN)

	case "sqlite":
		return NewSQLiteJobStore(cfg.SQLite.Path)

	case "hybrid":
		cache, err := NewRedisJobStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL())
		if err != nil {
			return nil, err
		}
		db, err := NewPostgresJobStore(cfg.Postgres.DSN)
		if err != nil {
			cache.Close()
			return nil, err
		}
		return NewHybridJobStore(cache, db), nil
	}
	return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Type)
}
