package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/z-wentao/subhashit/pkg/assets"
	"github.com/z-wentao/subhashit/pkg/config"
	"github.com/z-wentao/subhashit/pkg/gateway"
	"github.com/z-wentao/subhashit/pkg/inspector"
	"github.com/z-wentao/subhashit/pkg/queue"
	"github.com/z-wentao/subhashit/pkg/server"
	"github.com/z-wentao/subhashit/pkg/session"
	"github.com/z-wentao/subhashit/pkg/stages"
	"github.com/z-wentao/subhashit/pkg/storage"
	"github.com/z-wentao/subhashit/pkg/templates"
	"github.com/z-wentao/subhashit/pkg/worker"
)

func main() {
	configPath := flag.String("config", envOr("SUBHASHIT_CONFIG", "config/config.yaml"), "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("❌ 加载配置失败: %v", err)
	}
	log.Println("✓ 配置加载成功")

	ctx := context.Background()

	// 2. 任务存储
	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ 初始化存储失败: %v", err)
	}

	// 3. 队列
	var q queue.Queue
	switch cfg.Queue.Type {
	case "rabbitmq":
		q, err = queue.NewRabbitMQQueue(queue.RabbitMQOptions{
			URL:       cfg.Queue.RabbitMQ.URL,
			QueueName: cfg.Queue.RabbitMQ.QueueName,
			Prefetch:  cfg.Queue.WorkerCount,
			TTL:       cfg.Session.TTL(),
		})
		if err != nil {
			log.Fatalf("❌ 连接 RabbitMQ 失败: %v", err)
		}
	default:
		q = queue.NewMemoryQueue(cfg.Queue.BufferSize)
		log.Println("✓ 使用内存队列")
	}

	// 4. 静态资源（动画、下载文件、合成音频）
	assetStore, err := assets.Open(ctx, cfg.Assets.BucketURL, cfg.Assets.DownloadKey)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := assetStore.SeedAll(ctx, templates.MainAnimations.Keys(), assets.PlaceholderAnimation); err != nil {
		log.Printf("⚠️ 写入默认动画失败: %v", err)
	}

	// 5. 翻译网关
	gw, err := gateway.New(cfg, assetStore)
	if err != nil {
		log.Fatalf("❌ 初始化翻译网关失败: %v", err)
	}
	log.Printf("✓ 翻译网关: %s", cfg.Gateway.Type)

	// 6. 会话与进度控制器
	captions, err := stages.Load(cfg.Ticker.ScriptPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	tokens, err := session.NewTokenService(cfg.Session.Secret, cfg.Session.TTL())
	if err != nil {
		log.Fatalf("❌ 初始化会话签名失败: %v", err)
	}
	sessions, err := session.NewManager(server.ProgressSettings(cfg, captions, assetStore.DownloadURL()), tokens, store)
	if err != nil {
		log.Fatalf("❌ 进度配置无效: %v", err)
	}

	in, err := inspector.New(inspector.NewFFProbe(""), cfg.Server.UploadDir)
	if err != nil {
		log.Fatalf("❌ 创建上传目录失败: %v", err)
	}

	// 7. 启动 Worker
	w := worker.NewWorker(q, store, gw, sessions, cfg.Queue.WorkerCount)
	w.Start()
	log.Println("✓ Worker 已启动")

	// 8. 启动 HTTP 服务器
	app := server.NewApp(server.Deps{
		Config:    cfg,
		Sessions:  sessions,
		Queue:     q,
		Store:     store,
		Inspector: in,
		Assets:    assetStore,
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: app.Router(),
	}
	// 关闭会话后 SSE 连接随之结束
	srv.RegisterOnShutdown(sessions.Close)

	log.Printf("🚀 Subhashit 服务器启动在 http://localhost:%d", cfg.Server.Port)
	log.Printf("📝 配置信息:")
	log.Printf("   - 并发 Worker: %d", cfg.Queue.WorkerCount)
	log.Printf("   - 队列类型: %s", cfg.Queue.Type)
	log.Printf("   - 存储类型: %s", cfg.Storage.Type)
	log.Printf("   - 进度条: %d × %dms", cfg.Progress.MaxTicks, cfg.Progress.TickIntervalMs)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ 服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP 服务器关闭超时: %v", err)
	}

	w.Stop()
	q.Close()
	if err := store.Close(); err != nil {
		log.Printf("⚠️ 关闭存储失败: %v", err)
	}
	assetStore.Close()
	log.Println("✓ 服务器已关闭")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
