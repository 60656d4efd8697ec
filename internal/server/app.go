package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"eth-offline-signer/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	HttpPort        string
	ShutdownTimeout time.Duration
}

type App struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

func New(cfg Config, httpHandler http.Handler) *App {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	return &App{
		httpServer: &http.Server{
			Addr:              ":" + cfg.HttpPort,
			Handler:           httpHandler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run 启动服务并阻塞，直到 ctx 结束 (通常由 SIGINT/SIGTERM 触发) 或服务异常退出
func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, lis)
}

// Serve 在给定的 listener 上提供服务
func (a *App) Serve(ctx context.Context, lis net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	// 1. HTTP
	g.Go(func() error {
		logger.Info("Starting HTTP Server", zap.String("addr", lis.Addr().String()))
		if err := a.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 2. Graceful Shutdown
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("⚠️  Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP Server forced to shutdown", zap.Error(err))
			return err
		}
		logger.Info("Server exited properly")
		return nil
	})

	return g.Wait()
}
