package main

import (
	"context"
	"errors"
	"localdeals/internal/pkg/config"
	"localdeals/internal/pkg/middleware"
	"localdeals/internal/pkg/registry"
	"localdeals/pkg/database"
	"localdeals/pkg/logger"
	"localdeals/pkg/metrics"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// 模块在 init 中自注册
	_ "localdeals/internal/domain/claim"
	_ "localdeals/internal/domain/common"
	_ "localdeals/internal/domain/deal"
	_ "localdeals/internal/domain/payment"
	_ "localdeals/internal/domain/points"
	_ "localdeals/internal/domain/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 配置与日志
	config.LoadConfig()
	cfg := &config.GlobalConfig
	if err := logger.Init(cfg.App.Env, cfg.App.Debug); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	// 2. 存储
	db := database.InitDatabase()
	rdb, err := database.InitRedis(cfg.Redis)
	if err != nil {
		logger.Log.Warn("redis unavailable, running degraded", zap.Error(err))
	}

	// 3. 路由与中间件
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	collector := metrics.GetGlobalCollector()
	r.Use(
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.RecoveryMiddleware(),
		middleware.MetricsMiddleware(collector),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.SecurityHeadersMiddleware(),
		middleware.TimeoutMiddleware(10*time.Second),
	)

	// 4. 模块
	modCtx := &registry.ModuleContext{
		DB:     db,
		Redis:  rdb,
		Router: r,
		Config: cfg,
		Logger: logger.Log,
	}
	if err := registry.InitModules(modCtx); err != nil {
		logger.Log.Fatal("init modules", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if sqlDB, err := db.DB(); err == nil {
		go database.NewPoolMonitor(sqlDB, collector, logger.Log, 15*time.Second).Run(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("http shutdown", zap.Error(err))
	}
	// 先停 HTTP，再等重试中的支付事件
	registry.ShutdownModules()

	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
