package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resumeBuilder/internal/api/middleware"
	"resumeBuilder/internal/resume"
	"resumeBuilder/internal/storage"
	"resumeBuilder/internal/store"
)

// Messages returned by the resume endpoints.
const (
	MsgResumeNotFound = "Resume not found"
	MsgNotAuthorized  = "User not authorized"
	MsgResumeRemoved  = "Resume removed"
)

// ResumeStore 是处理器依赖的持久化能力，由 *store.Store 实现。
type ResumeStore interface {
	ListByOwner(ctx context.Context, ownerID uint) ([]resume.Document, error)
	GetByID(ctx context.Context, id string, ownerID uint) (resume.Document, error)
	Create(ctx context.Context, ownerID uint, doc resume.Document) (resume.Document, error)
	Update(ctx context.Context, id string, ownerID uint, patch store.Patch) (resume.Document, error)
	Delete(ctx context.Context, id string, ownerID uint) error
	GetExport(ctx context.Context, id string, ownerID uint) (store.ExportState, error)
	SetExport(ctx context.Context, id string, status, objectKey string) error
}

// ExportObjects 是导出文件所在的对象存储，由 *storage.Client 实现。
type ExportObjects interface {
	PresignedDownloadURL(ctx context.Context, objectKey, fileName string, ttl time.Duration) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// ResumeHandler 负责简历的增删改查。
type ResumeHandler struct {
	store   ResumeStore
	objects ExportObjects
	logger  *slog.Logger
}

// NewResumeHandler 构造 ResumeHandler。objects 可为 nil（不清理导出文件）。
func NewResumeHandler(resumes ResumeStore, objects ExportObjects, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{store: resumes, objects: objects, logger: logger}
}

// ListResumes 按 updatedAt 倒序返回当前用户的全部简历。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	docs, err := h.store.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		middleware.LoggerOr(c, h.logger).Error("list resumes failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}
	c.JSON(http.StatusOK, docs)
}

// GetResume 返回单份简历。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	doc, err := h.store.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.storeError(c, "get resume failed", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// CreateResume 校验并保存新简历。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var doc resume.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		BadRequest(c, err.Error())
		return
	}

	created, err := h.store.Create(c.Request.Context(), userID, doc)
	if err != nil {
		h.storeError(c, "create resume failed", err)
		return
	}
	middleware.LoggerOr(c, h.logger).Info("resume created", slog.String("resume_id", created.ID))
	c.JSON(http.StatusOK, created)
}

// UpdateResume 以请求体中出现的顶层字段覆盖已有内容。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var patch store.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updated, err := h.store.Update(c.Request.Context(), c.Param("id"), userID, patch)
	if err != nil {
		h.storeError(c, "update resume failed", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteResume 删除简历，并尽力清理其导出文件。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()
	if err := h.store.Delete(ctx, id, userID); err != nil {
		h.storeError(c, "delete resume failed", err)
		return
	}

	if h.objects != nil {
		if err := h.objects.DeletePrefix(ctx, storage.ExportPrefix(userID, id)); err != nil {
			middleware.LoggerOr(c, h.logger).Warn("delete exported files failed",
				slog.String("resume_id", id),
				slog.Any("error", err),
			)
		}
	}
	c.JSON(http.StatusOK, gin.H{"msg": MsgResumeRemoved})
}

// storeError 将 store 返回的错误映射为 HTTP 响应。
func (h *ResumeHandler) storeError(c *gin.Context, logMsg string, err error) {
	writeStoreError(c, middleware.LoggerOr(c, h.logger), logMsg, err)
}

func writeStoreError(c *gin.Context, logger *slog.Logger, logMsg string, err error) {
	var validation resume.ValidationErrors
	switch {
	case errors.Is(err, store.ErrNotFound):
		NotFound(c, MsgResumeNotFound)
	case errors.Is(err, store.ErrNotOwner):
		Unauthorized(c, MsgNotAuthorized)
	case errors.As(err, &validation):
		ValidationFailed(c, validation)
	case errors.Is(err, store.ErrInvalidPatch):
		BadRequest(c, err.Error())
	default:
		logger.Error(logMsg, slog.Any("error", err))
		Internal(c, "Server error")
	}
}

// requireUser 读取 AuthMiddleware 注入的用户；缺失时直接回写 401。
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		Unauthorized(c, middleware.MsgNoToken)
	}
	return userID, ok
}
