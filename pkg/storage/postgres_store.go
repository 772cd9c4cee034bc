package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS translation_jobs (
	job_id       TEXT PRIMARY KEY,
	session_id   TEXT,
	seq          BIGINT NOT NULL DEFAULT 0,
	kind         TEXT NOT NULL,
	source_text  TEXT,
	source_lang  TEXT,
	target_langs TEXT NOT NULL DEFAULT '[]',
	filename     TEXT,
	file_path    TEXT,
	status       TEXT NOT NULL,
	records      TEXT NOT NULL DEFAULT '[]',
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_translation_jobs_session ON translation_jobs (session_id, created_at DESC);
`

// PostgresJobStore PostgreSQL 任务存储
type PostgresJobStore struct {
	*sqlJobStore
}

// NewPostgresJobStore 创建 PostgreSQL 任务存储
func NewPostgresJobStore(connStr string) (*PostgresJobStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}

	return &PostgresJobStore{sqlJobStore: newSQLJobStore(db, "postgres")}, nil
}
