package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-extractor/internal/api"
	"recipe-extractor/internal/core/extraction"
	"recipe-extractor/internal/core/queue"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定", zap.Any("config", cfg.Summary()))

	// 初始化擷取引擎
	engine, cleanup, err := extraction.NewFromConfig(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		common.LogFatal("Failed to initialize extraction engine", zap.Error(err))
	}
	defer cleanup()

	// 批次擷取使用的工作隊列
	jobs := queue.NewManager(cfg.Queue.Workers, cfg.Queue.MaxSize, engine.Extract)

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Services{
		Extractor: engine,
		Batcher:   jobs,
		Cache:     engine,
		Queue:     jobs,
		Gatherer:  prometheus.DefaultGatherer,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		jobs.Close()
		cleanup()
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	// 先停止隊列再關閉快取與 AI 連線
	jobs.Close()

	common.LogInfo("Server exited")
}
