package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/z-wentao/subhashit/pkg/assets"
	"github.com/z-wentao/subhashit/pkg/config"
	"github.com/z-wentao/subhashit/pkg/server"
	"github.com/z-wentao/subhashit/pkg/templates"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	addr := flag.String("addr", ":8052", "监听地址")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("❌ 加载配置失败: %v", err)
	}

	ctx := context.Background()
	assetStore, err := assets.Open(ctx, cfg.Assets.BucketURL, cfg.Assets.DownloadKey)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer assetStore.Close()
	if err := assetStore.SeedAll(ctx, templates.DemoAnimations.Keys(), assets.PlaceholderAnimation); err != nil {
		log.Printf("⚠️ 写入默认动画失败: %v", err)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.NewAnimationRouter(assetStore, cfg.CORS.Origins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🚀 动画演示启动在 http://localhost%s", *addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ 服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ 关闭超时: %v", err)
	}
	log.Println("✓ 服务器已关闭")
}
