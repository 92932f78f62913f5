package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	correlationIDKey = "correlationID"
	slogLoggerKey    = "slogLogger"
)

// CorrelationIDHeader 在请求、响应与导出通知之间传递同一个 ID。
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationIDMiddleware 沿用客户端传入的合法 ID，否则生成新的 UUID，并回写到响应头。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if !validCorrelationID(id) {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(CorrelationIDHeader, id)

		c.Next()
	}
}

// validCorrelationID 只接受不超过 64 个字符的 [A-Za-z0-9._-]，避免把任意输入写进日志。
func validCorrelationID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// GetCorrelationID 从上下文中取出 Correlation ID。
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}

// SlogLoggerMiddleware 为每个请求注入带 correlation_id 的 logger，请求结束时按状态码分级记录。
func SlogLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		requestLogger := logger.With(
			slog.String("correlation_id", GetCorrelationID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
		)
		c.Set(slogLoggerKey, requestLogger)

		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		switch status := c.Writer.Status(); {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		attrs := []slog.Attr{
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if userID, ok := UserID(c); ok {
			attrs = append(attrs, slog.Uint64("user_id", uint64(userID)))
		}
		requestLogger.LogAttrs(c.Request.Context(), level, "request completed", attrs...)
	}
}

// LoggerFromContext 返回上下文中的 slog.Logger，缺省为 slog.Default()。
func LoggerFromContext(c *gin.Context) *slog.Logger {
	return LoggerOr(c, nil)
}

// LoggerOr 返回请求 logger；未经过 SlogLoggerMiddleware 时返回 fallback。
func LoggerOr(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if value, ok := c.Get(slogLoggerKey); ok {
		if logger, ok := value.(*slog.Logger); ok {
			return logger
		}
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
