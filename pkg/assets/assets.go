// Package assets 静态资源与生成音频的存储
// 底层是 gocloud.dev/blob，支持 file://、mem://、s3://、gs://
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

// URLPrefix 资源对外的路径前缀
const URLPrefix = "/assets/"

// ErrInvalidKey 资源键为空或包含 ..
var ErrInvalidKey = errors.New("invalid asset key")

// Store 资源存储
type Store struct {
	bucket      *blob.Bucket
	downloadKey string
}

// Open 打开资源桶
func Open(ctx context.Context, bucketURL, downloadKey string) (*Store, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("打开资源桶失败: %w", err)
	}
	return NewStore(bucket, downloadKey), nil
}

// NewStore 使用已打开的资源桶
func NewStore(bucket *blob.Bucket, downloadKey string) *Store {
	return &Store{bucket: bucket, downloadKey: downloadKey}
}

// DownloadURL 成品视频的下载地址
func (s *Store) DownloadURL() string {
	return URLPrefix + s.downloadKey
}

// DownloadKey 成品视频的资源键
func (s *Store) DownloadKey() string {
	return s.downloadKey
}

// PutAudio 写入合成音频，返回可访问的路径
func (s *Store) PutAudio(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := s.put(ctx, key, r); err != nil {
		return "", err
	}
	return URLPrefix + key, nil
}

// Seed 资源不存在时写入默认内容，已存在则保持不变
func (s *Store) Seed(ctx context.Context, key string, data []byte) error {
	exists, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("检查资源失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType(key)}); err != nil {
		return fmt.Errorf("写入资源 %s 失败: %w", key, err)
	}
	log.Printf("✓ 已写入默认资源: %s", key)
	return nil
}

// PlaceholderAnimation 空白 Lottie 动画
var PlaceholderAnimation = []byte(`{"v":"5.7.4","fr":30,"ip":0,"op":60,"w":400,"h":400,"layers":[]}`)

// SeedAll 为缺失的资源写入同一份占位内容
func (s *Store) SeedAll(ctx context.Context, keys []string, data []byte) error {
	for _, key := range keys {
		if err := s.Seed(ctx, key, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, r io.Reader) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType(key)})
	if err != nil {
		return fmt.Errorf("创建资源写入器失败: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("写入资源 %s 失败: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("写入资源 %s 失败: %w", key, err)
	}
	return nil
}

// Close 关闭资源桶
func (s *Store) Close() error {
	return s.bucket.Close()
}

// ServeHTTP 按 URL 路径读取资源，路径需以 /assets/ 开头
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, URLPrefix)
	s.Serve(w, r, key)
}

// Serve 输出单个资源
func (s *Store) Serve(w http.ResponseWriter, r *http.Request, key string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !validKey(key) {
		http.NotFound(w, r)
		return
	}

	reader, err := s.bucket.NewReader(r.Context(), key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			http.NotFound(w, r)
			return
		}
		log.Printf("❌ 读取资源 %s 失败: %v", key, err)
		http.Error(w, "读取资源失败", http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	ct := reader.ContentType()
	if ct == "" {
		ct = contentType(key)
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.FormatInt(reader.Size(), 10))
	if key == s.downloadKey {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	}
	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("⚠️ 输出资源 %s 中断: %v", key, err)
	}
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

var mediaTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".json": "application/json",
}

func contentType(key string) string {
	if ct, ok := mediaTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
