package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"resumeBuilder/internal/api/middleware"
	"resumeBuilder/internal/database"
	"resumeBuilder/internal/tasks"
)

// Enqueuer 提交异步任务，由 *asynq.Client 实现。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ExportHandler 负责纸面导出的入队与下载链接。
type ExportHandler struct {
	store    ResumeStore
	queue    Enqueuer
	objects  ExportObjects
	maxRetry int
	linkTTL  time.Duration
	logger   *slog.Logger
}

// NewExportHandler 构造 ExportHandler。
func NewExportHandler(resumes ResumeStore, queue Enqueuer, objects ExportObjects, maxRetry int, linkTTL time.Duration, logger *slog.Logger) *ExportHandler {
	if linkTTL <= 0 {
		linkTTL = 5 * time.Minute
	}
	return &ExportHandler{
		store:    resumes,
		queue:    queue,
		objects:  objects,
		maxRetry: maxRetry,
		linkTTL:  linkTTL,
		logger:   logger,
	}
}

// RequestExport 将 PDF 导出任务入队并立即返回 202，结果经 /ws 推送。
func (h *ExportHandler) RequestExport(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerOr(c, h.logger)
	doc, err := h.store.GetByID(ctx, c.Param("id"), userID)
	if err != nil {
		writeStoreError(c, logger, "load resume for export failed", err)
		return
	}

	task, err := tasks.NewResumeExportTask(tasks.ResumeExportPayload{
		ResumeID:      doc.ID,
		OwnerID:       userID,
		TemplateID:    c.Query("template"),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		logger.Error("create export task failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}

	// 先标记 pending：worker 可能在入队返回前就写入 completed
	if err := h.store.SetExport(ctx, doc.ID, database.ExportPending, ""); err != nil {
		logger.Warn("mark export pending failed", slog.Any("error", err))
	}

	info, err := h.queue.EnqueueContext(ctx, task, asynq.MaxRetry(h.maxRetry))
	if err != nil {
		logger.Error("enqueue export failed", slog.Any("error", err))
		if err := h.store.SetExport(ctx, doc.ID, database.ExportFailed, ""); err != nil {
			logger.Warn("mark export failed failed", slog.Any("error", err))
		}
		Internal(c, "Failed to queue export")
		return
	}

	logger.Info("export queued", slog.String("resume_id", doc.ID), slog.String("task_id", info.ID))
	c.JSON(http.StatusAccepted, gin.H{
		"msg":     "Export accepted",
		"task_id": info.ID,
	})
}

// DownloadLink 为最近一次导出的 PDF 生成预签名链接。
func (h *ExportHandler) DownloadLink(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerOr(c, h.logger)
	id := c.Param("id")
	state, err := h.store.GetExport(ctx, id, userID)
	if err != nil {
		writeStoreError(c, logger, "load export state failed", err)
		return
	}
	if state.ObjectKey == "" {
		Conflict(c, "PDF not ready")
		return
	}

	doc, err := h.store.GetByID(ctx, id, userID)
	if err != nil {
		writeStoreError(c, logger, "load resume for download failed", err)
		return
	}

	url, err := h.objects.PresignedDownloadURL(ctx, state.ObjectKey, downloadFileName(doc.Title), h.linkTTL)
	if err != nil {
		logger.Error("presign download failed", slog.Any("error", err))
		Internal(c, "Failed to generate download link")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"status":     state.Status,
		"expires_in": int(h.linkTTL.Seconds()),
	})
}

// downloadFileName 由标题生成安全的附件文件名，例如 "Software Engineer" -> "Software-Engineer.pdf"。
func downloadFileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			return r
		case unicode.IsSpace(r):
			return '-'
		}
		return -1
	}, strings.TrimSpace(title))
	if name == "" {
		name = "resume"
	}
	return name + ".pdf"
}
