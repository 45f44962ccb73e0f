package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"grade-planner/backend/config"
	"grade-planner/backend/internal/api/handler"
	"grade-planner/backend/internal/api/middleware"
	"grade-planner/backend/internal/api/router"
	"grade-planner/backend/internal/realtime"
	"grade-planner/backend/internal/repository"
	"grade-planner/backend/internal/service"
	"grade-planner/backend/pkg/database"
	"grade-planner/backend/pkg/jwt"
	applogger "grade-planner/backend/pkg/logger"
	"grade-planner/backend/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Int("combination_cap", cfg.Planner.CombinationCap),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level == "debug", logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时会话存内存、事件仅本实例推送、不限流）
	var (
		kv      service.JSONStore
		pubsub  realtime.PubSub
		limiter middleware.RateLimiter
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，降级为单实例模式", zap.Error(err))
		rdb = nil
	} else {
		kv, pubsub, limiter = rdb, rdb, rdb
	}

	// 5. 初始化 JWT 校验
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 实时推送
	rootCtx, stopRealtime := context.WithCancel(context.Background())
	hub := realtime.NewHub(cfg.Server.CORS.AllowOrigins, logger)
	go hub.Run(rootCtx)
	broker := realtime.NewBroker(hub, pubsub, logger)
	go broker.Run(rootCtx)

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, kv, broker, logger)
	h := handler.NewHandler(svc, hub)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, limiter, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 等待进行中的组合生成结束
	if err := svc.Runner.Shutdown(ctx); err != nil {
		logger.Warn("组合生成任务未在超时内结束", zap.Error(err))
	}

	// 关闭 WebSocket 连接与事件订阅
	stopRealtime()

	// 关闭数据库连接
	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
