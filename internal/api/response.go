package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeBuilder/internal/resume"
)

// 所有错误响应统一为 {"msg": "..."}，与前端的提示条约定一致。
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"msg": msg})
}

func BadRequest(c *gin.Context, msg string)   { Error(c, http.StatusBadRequest, msg) }
func Unauthorized(c *gin.Context, msg string) { Error(c, http.StatusUnauthorized, msg) }
func NotFound(c *gin.Context, msg string)     { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)     { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)     { Error(c, http.StatusInternalServerError, msg) }

// ValidationFailed reports field-scoped errors so the client can route each to its form section.
func ValidationFailed(c *gin.Context, errs resume.ValidationErrors) {
	c.JSON(http.StatusBadRequest, gin.H{
		"msg":    "Validation failed",
		"errors": errs,
	})
}

// UpstreamFailed carries the raw upstream error string next to the message.
func UpstreamFailed(c *gin.Context, msg, upstream string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"msg":   msg,
		"error": upstream,
	})
}
