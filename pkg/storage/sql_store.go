package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/z-wentao/subhashit/pkg/models"
)

// sqlJobStore PostgreSQL 与 SQLite 共用的实现
// 查询统一用 ? 占位符书写，PostgreSQL 在构造时改写为 $n
type sqlJobStore struct {
	db     *sql.DB
	upsert string
	get    string
	list   string
	del    string
}

const jobColumns = `job_id, session_id, seq, kind, source_text, source_lang, target_langs,
	filename, file_path, status, records, error, created_at, completed_at`

func newSQLJobStore(db *sql.DB, dialect string) *sqlJobStore {
	s := &sqlJobStore{
		db: db,
		upsert: `
	INSERT INTO translation_jobs (` + jobColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (job_id)
	DO UPDATE SET
	status = excluded.status,
	records = excluded.records,
	error = excluded.error,
	file_path = excluded.file_path,
	completed_at = excluded.completed_at`,
		get:  `SELECT ` + jobColumns + ` FROM translation_jobs WHERE job_id = ?`,
		list: `SELECT ` + jobColumns + ` FROM translation_jobs WHERE session_id = ? ORDER BY created_at DESC LIMIT ` + strconv.Itoa(sessionListLimit),
		del:  `DELETE FROM translation_jobs WHERE job_id = ?`,
	}
	if dialect == "postgres" {
		s.upsert = rebind(s.upsert)
		s.get = rebind(s.get)
		s.list = rebind(s.list)
		s.del = rebind(s.del)
	}
	return s
}

// rebind 把 ? 占位符改写为 $1, $2 ...
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlJobStore) Save(job *models.TranslationJob) error {
	targetsJSON, err := json.Marshal(job.TargetLangs)
	if err != nil {
		return fmt.Errorf("序列化 target_langs 失败: %w", err)
	}
	recordsJSON, err := json.Marshal(job.Records)
	if err != nil {
		return fmt.Errorf("序列化 records 失败: %w", err)
	}

	var completedAt sql.NullTime
	if !job.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: job.CompletedAt, Valid: true}
	}

	_, err = s.db.Exec(s.upsert,
		job.JobID,
		job.SessionID,
		int64(job.Seq),
		string(job.Kind),
		job.SourceText,
		job.SourceLang,
		string(targetsJSON),
		job.Filename,
		job.FilePath,
		string(job.Status),
		string(recordsJSON),
		job.Error,
		job.CreatedAt,
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("保存到数据库失败: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.TranslationJob, error) {
	var job models.TranslationJob
	var seq int64
	var kind, status, targetsJSON, recordsJSON string
	var sessionID, sourceText, sourceLang, filename, filePath, errorMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&job.JobID,
		&sessionID,
		&seq,
		&kind,
		&sourceText,
		&sourceLang,
		&targetsJSON,
		&filename,
		&filePath,
		&status,
		&recordsJSON,
		&errorMsg,
		&job.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.SessionID = sessionID.String
	job.Seq = uint64(seq)
	job.Kind = models.JobKind(kind)
	job.SourceText = sourceText.String
	job.SourceLang = sourceLang.String
	job.Filename = filename.String
	job.FilePath = filePath.String
	job.Status = models.JobStatus(status)
	job.Error = errorMsg.String
	if completedAt.Valid {
		job.CompletedAt = completedAt.Time
	}

	if targetsJSON != "" {
		if err := json.Unmarshal([]byte(targetsJSON), &job.TargetLangs); err != nil {
			return nil, fmt.Errorf("反序列化 target_langs 失败: %w", err)
		}
	}
	if recordsJSON != "" {
		if err := json.Unmarshal([]byte(recordsJSON), &job.Records); err != nil {
			return nil, fmt.Errorf("反序列化 records 失败: %w", err)
		}
	}
	return &job, nil
}

func (s *sqlJobStore) Get(jobID string) (*models.TranslationJob, error) {
	job, err := scanJob(s.db.QueryRow(s.get, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("查询数据库失败: %w", err)
	}
	return job, nil
}

func (s *sqlJobStore) Update(jobID string, updateFn func(*models.TranslationJob)) error {
	job, err := s.Get(jobID)
	if err != nil {
		return err
	}
	updateFn(job)
	return s.Save(job)
}

func (s *sqlJobStore) ListBySession(sessionID string) ([]*models.TranslationJob, error) {
	rows, err := s.db.Query(s.list, sessionID)
	if err != nil {
		return nil, fmt.Errorf("查询数据库失败: %w", err)
	}
	defer rows.Close()

	jobs := make([]*models.TranslationJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("读取任务失败: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历任务失败: %w", err)
	}
	return jobs, nil
}

func (s *sqlJobStore) Delete(jobID string) error {
	result, err := s.db.Exec(s.del, jobID)
	if err != nil {
		return fmt.Errorf("删除任务失败: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("获取删除结果失败: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return nil
}

func (s *sqlJobStore) Close() error {
	return s.db.Close()
}
