package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resumeBuilder/internal/api/middleware"
	"resumeBuilder/internal/config"
	"resumeBuilder/internal/metrics"
)

// NewRouter 构建 Gin 引擎并挂载通用中间件、健康检查与 /metrics。
func NewRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
		middleware.CORSMiddleware(cfg.API.Origins()),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
