package inspector

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/z-wentao/subhashit/pkg/models"
)

type fakeProber struct {
	result *ProbeResult
	err    error
	path   string
}

func (f *fakeProber) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	f.path = path
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func TestInspectVideo(t *testing.T) {
	prober := &fakeProber{result: &ProbeResult{DurationSeconds: 12.3456, VideoCodec: "h264", AudioCodec: "aac"}}
	in, err := New(prober, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	data := bytes.Repeat([]byte{0x42}, 3*1024*1024)
	info, err := in.InspectVideo(context.Background(), "clip.mp4", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("InspectVideo() error = %v", err)
	}

	if info.SizeBytes != int64(len(data)) {
		t.Errorf("SizeBytes = %d, want %d", info.SizeBytes, len(data))
	}
	if info.RoundedDuration() != 12.35 {
		t.Errorf("RoundedDuration() = %v, want 12.35", info.RoundedDuration())
	}
	if info.VideoCodec != "h264" || info.AudioCodec != "aac" {
		t.Errorf("codecs = %q/%q", info.VideoCodec, info.AudioCodec)
	}
	if !strings.HasSuffix(prober.path, ".mp4") {
		t.Errorf("temp file %q should keep the extension", prober.path)
	}
	if _, err := os.Stat(prober.path); !os.IsNotExist(err) {
		t.Errorf("temp file %q was not removed", prober.path)
	}
}

func TestInspectVideoDecodeError(t *testing.T) {
	probeErr := errors.New("Invalid data found when processing input")
	prober := &fakeProber{err: probeErr}
	in, err := New(prober, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = in.InspectVideo(context.Background(), "broken.mp4", strings.NewReader("not a video"))

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if !errors.Is(err, probeErr) {
		t.Errorf("DecodeError should wrap the probe error")
	}
	if _, err := os.Stat(prober.path); !os.IsNotExist(err) {
		t.Errorf("temp file %q was not removed after failure", prober.path)
	}
	if got := VideoErrorStatus(err); !strings.HasPrefix(got, "⚠️ Error processing video: broken.mp4") {
		t.Errorf("VideoErrorStatus() = %q", got)
	}
}

func TestSaveAudio(t *testing.T) {
	dir := t.TempDir()
	in, err := New(&fakeProber{}, dir)
	if err != nil {
		t.Fatal(err)
	}

	path, err := in.SaveAudio("speech.wav", strings.NewReader("RIFF"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(path, dir) || !strings.HasSuffix(path, ".wav") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "RIFF" {
		t.Errorf("content = %q", data)
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     string
		wantErr  bool
	}{
		{"utf8 txt", "notes.txt", []byte("नमस्ते दुनिया"), "नमस्ते दुनिया", false},
		{"uppercase extension", "NOTES.TXT", []byte("hello"), "hello", false},
		{"not a txt file", "notes.pdf", []byte("hello"), "", true},
		{"invalid utf8", "latin1.txt", []byte{0xff, 0xfe, 0x41}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.filename, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVideoStatus(t *testing.T) {
	info := models.MediaInfo{Filename: "demo.mp4", DurationSeconds: 9.999, SizeBytes: 5 * 1024 * 1024 / 2}
	got := VideoStatus(info)
	want := []string{
		"Video file 'demo.mp4' uploaded successfully!",
		"📏 Duration: 10 seconds",
		"📦 Size: 2.5 MB",
	}
	if len(got) != len(want) {
		t.Fatalf("VideoStatus() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseFFProbe(t *testing.T) {
	output := []byte(`{
		"streams": [
			{"codec_name": "h264", "codec_type": "video"},
			{"codec_name": "aac", "codec_type": "audio"}
		],
		"format": {"duration": "31.466667", "size": "1048576"}
	}`)

	got, err := parseFFProbe(output)
	if err != nil {
		t.Fatal(err)
	}
	if got.DurationSeconds != 31.466667 {
		t.Errorf("DurationSeconds = %v", got.DurationSeconds)
	}
	if got.VideoCodec != "h264" || got.AudioCodec != "aac" {
		t.Errorf("codecs = %q/%q", got.VideoCodec, got.AudioCodec)
	}

	if _, err := parseFFProbe([]byte(`{"format": {}}`)); err == nil {
		t.Error("missing duration should fail")
	}
	if _, err := parseFFProbe([]byte(`garbage`)); err == nil {
		t.Error("invalid json should fail")
	}
}
