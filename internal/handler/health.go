package handler

import (
	"eth-offline-signer/internal/handler/response"

	"github.com/gin-gonic/gin"
)

// HealthCheck 存活检查，不访问节点
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"version": "1.0.0",
		"service": "relay-server",
	})
}
