package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xby-111/bill/internal/config"
	"github.com/xby-111/bill/internal/database"
	"github.com/xby-111/bill/internal/logger"
	"github.com/xby-111/bill/internal/router"
	"github.com/xby-111/bill/internal/session"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ledger: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog.Close()
	slog.SetDefault(log)

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer database.Close(db)

	// run migrations
	if err := database.AutoMigrate(db, cfg.Server.Profile); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// 配置了 Redis 时 token 吊销走 Redis，否则落库
	var revoker session.Revoker
	if cfg.Server.Profile == config.ProfileFull {
		revoker, err = newRevoker(cfg, db, log)
		if err != nil {
			return err
		}
		if c, ok := revoker.(io.Closer); ok {
			defer c.Close()
		}
	}

	// setup router
	engine := router.SetupRouter(cfg, db, log, revoker)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.WithCORS(engine, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening",
			"addr", srv.Addr,
			"profile", cfg.Server.Profile,
			"driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// 收到信号或服务异常退出时关闭
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

func newRevoker(cfg *config.Config, db *gorm.DB, log *slog.Logger) (session.Revoker, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.Redis.Addr != "" {
		rdb, err := session.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("token denylist backed by redis", "addr", cfg.Redis.Addr)
		return session.NewRedisRevoker(rdb), nil
	}

	r := session.NewDBRevoker(db)
	// 启动时顺带清理已过期的吊销记录
	if n, err := r.Purge(ctx); err != nil {
		log.Warn("purge revoked tokens", "error", err)
	} else if n > 0 {
		log.Info("purged expired revoked tokens", "count", n)
	}
	return r, nil
}
