package server

import (
	"eth-offline-signer/internal/handler"
	"eth-offline-signer/pkg/monitor"
	"eth-offline-signer/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(txHandler *handler.TransactionHandler) (*gin.Engine, error) {
	// 0. 初始化监控指标和自定义校验规则
	monitor.Init()
	if err := validator.Init(); err != nil {
		return nil, err
	}

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware())

	// 3. 注册基础路由
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 4. 注册 API 路由组
	api := r.Group("/api/v1")
	{
		tx := api.Group("/transactions")
		tx.POST("", txHandler.Broadcast)
		tx.GET("/:hash/receipt", txHandler.Receipt)
	}

	return r, nil
}
