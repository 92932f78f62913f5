package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"resumeBuilder/internal/database"
	"resumeBuilder/internal/errcode"
	"resumeBuilder/internal/metrics"
	"resumeBuilder/internal/pdf"
	"resumeBuilder/internal/render"
	"resumeBuilder/internal/resume"
	"resumeBuilder/internal/storage"
	"resumeBuilder/internal/store"
	"resumeBuilder/internal/tasks"
)

// ResumeSource is the slice of the resume store the export worker needs.
type ResumeSource interface {
	GetByID(ctx context.Context, id string, ownerID uint) (resume.Document, error)
	SetExport(ctx context.Context, id string, status, objectKey string) error
}

// ObjectUploader stores exported files.
type ObjectUploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
}

// ExportTaskHandler 消费 resume:export 任务：渲染纸面 HTML、打印 A4、校验文字、上传并通知。
type ExportTaskHandler struct {
	resumes   ResumeSource
	templates *render.Registry
	printer   pdf.Printer
	objects   ObjectUploader
	notifier  Notifier
	logger    *slog.Logger
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	resumes ResumeSource,
	templates *render.Registry,
	printer pdf.Printer,
	objects ObjectUploader,
	notifier Notifier,
	logger *slog.Logger,
) *ExportTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportTaskHandler{
		resumes:   resumes,
		templates: templates,
		printer:   printer,
		objects:   objects,
		notifier:  notifier,
		logger:    logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	payload, err := tasks.ParseResumeExportPayload(t)
	if err != nil {
		h.logger.Error("invalid export payload", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("resume_id", payload.ResumeID),
		slog.Uint64("user_id", uint64(payload.OwnerID)),
	)
	log.Info("starting resume export")

	doc, err := h.resumes.GetByID(ctx, payload.ResumeID, payload.OwnerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrNotOwner) {
			log.Warn("resume not available, skipping export", slog.Any("error", err))
			return nil
		}
		log.Error("load resume failed", slog.Any("error", err))
		return err
	}

	templateID := payload.TemplateID
	if templateID == "" {
		templateID = doc.TemplateID
	}
	visual := h.templates.Render(doc, templateID, render.TargetPaper)

	defer func() {
		if retErr == nil || !isFinalAsynqAttempt(ctx) {
			return
		}
		metrics.ObserveExport(visual.TemplateID, "error")
		if err := h.resumes.SetExport(ctx, doc.ID, database.ExportFailed, ""); err != nil {
			log.Error("record export failure failed", slog.Any("error", err))
		}
		notify := ExportNotifyMessage{
			Type:          "resume_export",
			Status:        "error",
			ResumeID:      doc.ID,
			TemplateID:    visual.TemplateID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.notifier.Notify(ctx, doc.OwnerID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	page, err := render.HTML(doc.Title, visual)
	if err != nil {
		return err
	}

	out, err := h.printer.Print(ctx, string(page), pdf.A4)
	if err != nil {
		log.Error("print pdf failed", slog.Any("error", err))
		return err
	}

	missing, verifyErr := verifyText(out.PDF, render.PlainText(visual))
	if verifyErr != nil {
		log.Warn("pdf text extraction failed", slog.Any("error", verifyErr))
	}

	objectName := fmt.Sprintf("%s%s.pdf", storage.ExportPrefix(doc.OwnerID, doc.ID), uuid.NewString())
	if err := h.objects.UploadFile(ctx, objectName, bytes.NewReader(out.PDF), int64(len(out.PDF)), "application/pdf"); err != nil {
		log.Error("upload pdf failed", slog.Any("error", err))
		return err
	}
	if len(out.Thumbnail) > 0 {
		thumbName := fmt.Sprintf("%sthumbnail.jpg", storage.ExportPrefix(doc.OwnerID, doc.ID))
		if err := h.objects.UploadFile(ctx, thumbName, bytes.NewReader(out.Thumbnail), int64(len(out.Thumbnail)), "image/jpeg"); err != nil {
			log.Warn("upload thumbnail failed", slog.Any("error", err))
		}
	}

	if err := h.resumes.SetExport(ctx, doc.ID, database.ExportCompleted, objectName); err != nil {
		log.Error("record export failed", slog.Any("error", err))
		return err
	}

	notify := ExportNotifyMessage{
		Type:          "resume_export",
		Status:        "completed",
		ResumeID:      doc.ID,
		TemplateID:    visual.TemplateID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	outcome := "ok"
	switch {
	case verifyErr != nil:
		notify.ErrorCode = errcode.ContentMismatch
		notify.ErrorMessage = "PDF text could not be verified against the preview"
		outcome = "mismatch"
	case len(missing) > 0:
		notify.ErrorCode = errcode.ContentMismatch
		notify.ErrorMessage = "PDF text differs from the preview"
		notify.MissingLines = missing
		outcome = "mismatch"
		log.Warn("pdf content differs from preview", slog.Int("missing_count", len(missing)))
	}
	metrics.ObserveExport(visual.TemplateID, outcome)

	if err := h.notifier.Notify(ctx, doc.OwnerID, notify); err != nil {
		log.Error("publish export notification failed", slog.Any("error", err))
		return err
	}

	log.Info("resume export completed", slog.String("object", objectName))
	return nil
}

func verifyText(data []byte, expected []string) ([]string, error) {
	text, err := pdf.ExtractText(data)
	if err != nil {
		return nil, err
	}
	return pdf.MissingLines(text, expected), nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
