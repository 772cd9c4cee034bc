package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS translation_jobs (
	job_id       TEXT PRIMARY KEY,
	session_id   TEXT,
	seq          INTEGER NOT NULL DEFAULT 0,
	kind         TEXT NOT NULL,
	source_text  TEXT,
	source_lang  TEXT,
	target_langs TEXT NOT NULL DEFAULT '[]',
	filename     TEXT,
	file_path    TEXT,
	status       TEXT NOT NULL,
	records      TEXT NOT NULL DEFAULT '[]',
	error        TEXT,
	created_at   DATETIME NOT NULL,
	completed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_translation_jobs_session ON translation_jobs (session_id, created_at DESC);
`

// SQLiteJobStore 单机部署用的 SQLite 任务存储
type SQLiteJobStore struct {
	*sqlJobStore
}

// NewSQLiteJobStore 创建 SQLite 任务存储
func NewSQLiteJobStore(path string) (*SQLiteJobStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}

	return &SQLiteJobStore{sqlJobStore: newSQLJobStore(db, "sqlite3")}, nil
}
