package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { bucket.Close() })
	return NewStore(bucket, "translated_video.mp4")
}

func TestPutAudioAndServe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	url, err := s.PutAudio(ctx, "tts/abc.mp3", strings.NewReader("ID3 audio"))
	if err != nil {
		t.Fatal(err)
	}
	if url != "/assets/tts/abc.mp3" {
		t.Errorf("url = %q", url)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ID3 audio" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("audio should not be served as attachment")
	}
}

func TestServeDownloadAsset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Seed(ctx, s.DownloadKey(), []byte("video")); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, s.DownloadURL(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="translated_video.mp4"` {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestSeedKeepsExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Seed(ctx, "Scanning.json", []byte(`{"v":"1"}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Seed(ctx, "Scanning.json", []byte(`{"v":"2"}`)); err != nil {
		t.Fatal(err)
	}

	data, err := s.bucket.ReadAll(ctx, "Scanning.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"v":"1"}` {
		t.Errorf("Seed overwrote existing asset: %s", data)
	}
}

func TestServeErrors(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"missing", http.MethodGet, "/assets/nope.json", http.StatusNotFound},
		{"traversal", http.MethodGet, "/assets/../config.yaml", http.StatusNotFound},
		{"empty key", http.MethodGet, "/assets/", http.StatusNotFound},
		{"post", http.MethodPost, "/assets/x.json", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.URL.Path = tt.path
			s.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPutAudioRejectsInvalidKey(t *testing.T) {
	s := newTestStore(t)
	_, err := s.PutAudio(context.Background(), "../escape.mp3", strings.NewReader("x"))
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("error = %v, want ErrInvalidKey", err)
	}
}

func TestSeedAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	keys := []string{"Scanning.json", "video.json"}
	if err := s.SeedAll(ctx, keys, PlaceholderAnimation); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/video.json", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != string(PlaceholderAnimation) {
		t.Errorf("seeded animation = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}
