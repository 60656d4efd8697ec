package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"eth-offline-signer/internal/chain"
	"eth-offline-signer/internal/handler"
	"eth-offline-signer/internal/server"
	"eth-offline-signer/internal/service"
	"eth-offline-signer/pkg/config"
	"eth-offline-signer/pkg/logger"
)

// relay-server 只转发已签名的交易，不持有任何私钥
func main() {
	// 1. 初始化配置与日志
	if err := config.Init(); err != nil {
		logger.Fatal("加载配置失败", zap.Error(err))
	}
	if err := logger.Init(config.Global.App.Env, config.Global.App.LogLevel); err != nil {
		logger.Fatal("初始化日志失败", zap.Error(err))
	}
	defer logger.Sync()

	logger.Info("启动交易中继服务 (Relay Server)...", zap.String("env", config.Global.App.Env))

	if config.Global.RPC.URL == "" {
		logger.Fatal("未配置 RPC 节点地址 (rpc.url / RPC_URL)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. 初始化链连接
	dialCtx, cancel := context.WithTimeout(ctx, config.Global.RPC.DialTimeout)
	client, err := chain.Dial(dialCtx, config.Global.RPC.URL)
	cancel()
	if err != nil {
		logger.Fatal("RPC 连接失败", zap.Error(err))
	}
	defer client.Close()

	// 3. 组装服务
	txService := service.NewTransactionService(
		service.NewSubmitter(client),
		service.NewConfirmer(client, config.Global.RPC.PollInterval),
		config.Global.Relay.ConfirmTimeout,
	)
	txHandler := handler.NewTransactionHandler(txService)

	router, err := server.NewHTTPRouter(txHandler)
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 4. 启动 HTTP 服务，收到信号后优雅退出
	app := server.New(server.Config{
		HttpPort:        config.Global.Relay.HttpPort,
		ShutdownTimeout: config.Global.Relay.ShutdownTimeout,
	}, router)
	if err := app.Run(ctx); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务已退出")
}
