package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/z-wentao/subhashit/pkg/models"
)

func newTestJob(id string, created time.Time) *models.TranslationJob {
	return &models.TranslationJob{
		JobID:       id,
		SessionID:   "sess-1",
		Seq:         3,
		Kind:        models.KindText,
		SourceText:  "hello world",
		SourceLang:  "en",
		TargetLangs: []string{"ta", "gu"},
		Status:      models.StatusPending,
		CreatedAt:   created,
	}
}

// exerciseStore 对任意 Store 实现运行同一组行为检查
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	older := newTestJob("job-older", base)
	newer := newTestJob("job-newer", base.Add(time.Minute))

	for _, job := range []*models.TranslationJob{older, newer} {
		if err := s.Save(job); err != nil {
			t.Fatalf("Save(%s): %v", job.JobID, err)
		}
	}

	got, err := s.Get("job-older")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SourceText != "hello world" || len(got.TargetLangs) != 2 || got.TargetLangs[1] != "gu" {
		t.Errorf("Get() = %+v, fields not round-tripped", got)
	}
	if got.Seq != 3 || got.Kind != models.KindText {
		t.Errorf("Get() seq/kind = %d/%s", got.Seq, got.Kind)
	}

	err = s.Update("job-older", func(job *models.TranslationJob) {
		job.Status = models.StatusCompleted
		job.Records = []models.TranslationRecord{{Language: "Tamil", Translation: "வணக்கம் உலகம்", AudioFile: "/assets/tamil.mp3"}}
		job.CompletedAt = base.Add(2 * time.Second)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err = s.Get("job-older")
	if err != nil {
		t.Fatalf("Get after Update: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("Status = %s, want completed", got.Status)
	}
	if len(got.Records) != 1 || got.Records[0].Translation != "வணக்கம் உலகம்" {
		t.Errorf("Records = %+v", got.Records)
	}
	if !got.CompletedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("CompletedAt = %v", got.CompletedAt)
	}

	other := newTestJob("job-other", base.Add(2*time.Minute))
	other.SessionID = "sess-2"
	if err := s.Save(other); err != nil {
		t.Fatalf("Save(other): %v", err)
	}

	jobs, err := s.ListBySession("sess-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(jobs) != 2 || jobs[0].JobID != "job-newer" {
		t.Errorf("ListBySession() = %v, want [job-newer job-older]", jobIDs(jobs))
	}
	if jobs, _ := s.ListBySession("sess-3"); len(jobs) != 0 {
		t.Errorf("unknown session listed %v", jobIDs(jobs))
	}

	if err := s.Delete("job-newer"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("job-newer"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get deleted job error = %v, want ErrNotFound", err)
	}
	if err := s.Delete("job-newer"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete twice error = %v, want ErrNotFound", err)
	}
	if err := s.Update("missing", func(*models.TranslationJob) {}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing error = %v, want ErrNotFound", err)
	}
}

func jobIDs(jobs []*models.TranslationJob) []string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.JobID
	}
	return ids
}

func TestJobStore(t *testing.T) {
	exerciseStore(t, NewJobStore())
}

func TestJobStoreReturnsCopies(t *testing.T) {
	s := NewJobStore()
	job := newTestJob("a", time.Now())
	s.Save(job)

	job.Status = models.StatusFailed
	got, _ := s.Get("a")
	if got.Status != models.StatusPending {
		t.Fatal("store shares memory with caller after Save")
	}

	got.TargetLangs[0] = "xx"
	again, _ := s.Get("a")
	if again.TargetLangs[0] != "ta" {
		t.Fatal("store shares slice memory with caller after Get")
	}
}

func TestSQLiteJobStore(t *testing.T) {
	s, err := NewSQLiteJobStore(filepath.Join(t.TempDir(), "data", "jobs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteJobStore: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestHybridJobStore(t *testing.T) {
	cache := NewJobStore()
	db := NewJobStore()
	s := NewHybridJobStore(cache, db)

	exerciseStore(t, s)

	// 已结束的任务在 Close 时全部落库
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, err := db.Get("job-older")
	if err != nil {
		t.Fatalf("finished job not synced to db: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("synced status = %s, want completed", got.Status)
	}
}

func TestHybridJobStoreFallsBackToDB(t *testing.T) {
	cache := NewJobStore()
	db := NewJobStore()
	s := NewHybridJobStore(cache, db)
	defer s.Close()

	db.Save(newTestJob("cold", time.Now()))

	if _, err := s.Get("cold"); err != nil {
		t.Fatalf("Get cold job: %v", err)
	}
	if _, err := cache.Get("cold"); err != nil {
		t.Errorf("cold job not written back to cache: %v", err)
	}
}

func TestRebind(t *testing.T) {
	got := rebind("SELECT a FROM t WHERE x = ? AND y = ?")
	want := "SELECT a FROM t WHERE x = $1 AND y = $2"
	if got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}
}
