package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/z-wentao/subhashit/pkg/config"
	"github.com/z-wentao/subhashit/pkg/models"
)

func TestStaticGatewayText(t *testing.T) {
	g := NewStaticGateway()
	got := g.Translate(context.Background(), "Hello world", []string{"df", "ta", "gu", "bn"})

	want := []models.TranslationRecord{
		{Language: "Hindi", Translation: "Hello world", AudioFile: "/assets/hindi.mp3"},
		{Language: "Tamil", Translation: "வணக்கம் உலகம்", AudioFile: "/assets/tamil.mp3"},
		{Language: "Gujarati", Translation: "હેલો વિશ્વ", AudioFile: "/assets/gujarati.mp3"},
		{Language: "Unknown", Translation: "N/A", AudioFile: ""},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStaticGatewayAudio(t *testing.T) {
	g := NewStaticGateway()
	got := g.TranslateAudio(context.Background(), "/tmp/in.wav", []string{"hi", "ta", "gu", "df"})

	want := []models.TranslationRecord{
		{Language: "Hindi", AudioFile: "/assets/hindi_audio.mp3"},
		{Language: "Tamil", AudioFile: "/assets/tamil_audio.mp3"},
		{Language: "Gujarati", AudioFile: "/assets/gujarati_audio.mp3"},
		{Language: "Unknown", AudioFile: ""},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHTTPGateway(t *testing.T) {
	var gotReq TextToSpeechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/text-to-speech" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode([]models.TranslationRecord{
			{Language: "Tamil", Translation: "வணக்கம் உலகம்", AudioFile: "/assets/tamil.mp3"},
			{Language: "Gujarati", Translation: "હેલો વિશ્વ", AudioFile: "/assets/gujarati.mp3"},
		})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL+"/", time.Second)
	records := g.Translate(context.Background(), "Hello world", []string{"ta", "gu"})

	if gotReq.SourceText != "Hello world" || gotReq.TargetLanguages != "ta,gu" {
		t.Errorf("request = %+v", gotReq)
	}
	if len(records) != 2 || records[1].Language != "Gujarati" {
		t.Errorf("records = %+v", records)
	}
}

func TestHTTPGatewayFailures(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	serverError := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer serverError.Close()

	badJSON := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer badJSON.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, "[]")
	}))
	defer slow.Close()

	tests := []struct {
		name     string
		url      string
		targets  []string
		wantLang string
	}{
		{"unreachable", downURL, []string{"ta"}, "ta"},
		{"server error", serverError.URL, []string{"ta", "gu"}, "ta,gu"},
		{"bad json", badJSON.URL, []string{"gu"}, "gu"},
		{"timeout", slow.URL, []string{"ta"}, "ta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewHTTPGateway(tt.url, 50*time.Millisecond)
			records := g.Translate(context.Background(), "Hello", tt.targets)

			if len(records) != 1 {
				t.Fatalf("got %d records, want 1 fallback", len(records))
			}
			r := records[0]
			if r.Language != tt.wantLang || !strings.HasPrefix(r.Translation, "Exception: ") || r.HasAudio() {
				t.Errorf("fallback record = %+v", r)
			}
		})
	}
}

type memorySink struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *memorySink) PutAudio(ctx context.Context, key string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = b
	return "/assets/" + key, nil
}

func newFakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		content := `{"translation":"வணக்கம் உலகம்"}`
		if strings.Contains(req.Messages[1].Content, "Gujarati") {
			content = `{"translation":"હેલો વિશ્વ"}`
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"index":   0,
				"message": map[string]string{"role": "assistant", "content": content},
			}},
		})
	})
	mux.HandleFunc("/v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-fake-mp3"))
	})
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "Hello world"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAIGateway(srv *httptest.Server, sink AudioSink) *OpenAIGateway {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIGatewayWithConfig(cfg, openai.GPT4oMini, "alloy", sink)
}

func TestOpenAIGatewayTranslate(t *testing.T) {
	sink := &memorySink{data: map[string][]byte{}}
	g := newTestOpenAIGateway(newFakeOpenAI(t), sink)

	records := g.Translate(context.Background(), "Hello world", []string{"ta", "gu"})
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Language != "Tamil" || records[0].Translation != "வணக்கம் உலகம்" {
		t.Errorf("record 0 = %+v", records[0])
	}
	if records[1].Language != "Gujarati" || records[1].Translation != "હેલો વિશ્વ" {
		t.Errorf("record 1 = %+v", records[1])
	}
	for _, r := range records {
		if !strings.HasPrefix(r.AudioFile, "/assets/tts/") {
			t.Errorf("audio file = %q", r.AudioFile)
		}
	}
	if len(sink.data) != 2 {
		t.Errorf("sink holds %d files, want 2", len(sink.data))
	}
}

func TestOpenAIGatewayTranslateAudio(t *testing.T) {
	sink := &memorySink{data: map[string][]byte{}}
	g := newTestOpenAIGateway(newFakeOpenAI(t), sink)

	audio := filepath.Join(t.TempDir(), "speech.wav")
	os.WriteFile(audio, bytes.Repeat([]byte{0}, 64), 0644)

	records := g.TranslateAudio(context.Background(), audio, []string{"ta"})
	if len(records) != 1 || records[0].Translation != "வணக்கம் உலகம்" || !records[0].HasAudio() {
		t.Errorf("records = %+v", records)
	}
}

func TestOpenAIGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	g := newTestOpenAIGateway(srv, &memorySink{data: map[string][]byte{}})
	records := g.Translate(context.Background(), "Hello", []string{"ta"})
	if len(records) != 1 || records[0].Language != "ta" || !strings.HasPrefix(records[0].Translation, "Exception: ") {
		t.Errorf("records = %+v", records)
	}
}

func TestFallback(t *testing.T) {
	got := Fallback([]string{"ta"}, fmt.Errorf("dial tcp: connection refused"))
	want := models.TranslationRecord{Language: "ta", Translation: "Exception: dial tcp: connection refused"}
	if len(got) != 1 || got[0] != want {
		t.Errorf("Fallback() = %+v", got)
	}
}

func TestFallbackError(t *testing.T) {
	fallback := Fallback([]string{"ta", "gu"}, fmt.Errorf("timeout"))
	if msg, ok := FallbackError(fallback); !ok || msg != "Exception: timeout" {
		t.Errorf("FallbackError(fallback) = %q, %v", msg, ok)
	}

	normal := []models.TranslationRecord{{Language: "Tamil", Translation: "வணக்கம் உலகம்"}}
	if _, ok := FallbackError(normal); ok {
		t.Error("normal record reported as fallback")
	}

	two := append(fallback, normal...)
	if _, ok := FallbackError(two); ok {
		t.Error("fallback must be the only record")
	}
}

func TestNew(t *testing.T) {
	cfg := config.Default()

	g, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := g.(*StaticGateway); !ok {
		t.Errorf("default gateway = %T, want *StaticGateway", g)
	}

	cfg.Gateway.Type = "http"
	cfg.Gateway.URL = "http://localhost:9"
	if g, _ := New(cfg, nil); g == nil {
		t.Error("http gateway not created")
	}

	cfg.Gateway.Type = "openai"
	if _, err := New(cfg, nil); err == nil {
		t.Error("openai gateway created without an audio sink")
	}

	cfg.Gateway.Type = "grpc"
	if _, err := New(cfg, nil); err == nil {
		t.Error("unknown gateway type accepted")
	}
}
