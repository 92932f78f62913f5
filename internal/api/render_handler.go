package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeBuilder/internal/api/middleware"
	"resumeBuilder/internal/render"
	"resumeBuilder/internal/resume"
)

// RenderHandler 暴露模板列表与预览渲染。
type RenderHandler struct {
	store     ResumeStore
	templates *render.Registry
	logger    *slog.Logger
}

// NewRenderHandler 构造 RenderHandler。
func NewRenderHandler(resumes ResumeStore, templates *render.Registry, logger *slog.Logger) *RenderHandler {
	return &RenderHandler{store: resumes, templates: templates, logger: logger}
}

// ListTemplates 返回全部可选模板。
func (h *RenderHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, h.templates.Templates())
}

// RenderResume 返回已保存简历的版面结构（JSON）。
func (h *RenderHandler) RenderResume(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.render(c, doc))
}

// PreviewResume 返回已保存简历的 HTML 预览。
func (h *RenderHandler) PreviewResume(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	h.writeHTML(c, doc)
}

// PreviewDraft 渲染尚未保存的草稿；草稿只做归一化，不做保存校验。
func (h *RenderHandler) PreviewDraft(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	var doc resume.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, h.render(c, doc))
		return
	}
	h.writeHTML(c, doc)
}

func (h *RenderHandler) loadOwned(c *gin.Context) (resume.Document, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return resume.Document{}, false
	}
	doc, err := h.store.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeStoreError(c, middleware.LoggerOr(c, h.logger), "load resume for render failed", err)
		return resume.Document{}, false
	}
	return doc, true
}

func (h *RenderHandler) render(c *gin.Context, doc resume.Document) render.VisualDocument {
	return h.templates.Render(doc, c.Query("template"), render.ParseTarget(c.Query("target")))
}

func (h *RenderHandler) writeHTML(c *gin.Context, doc resume.Document) {
	visual := h.render(c, doc)
	title := resume.Normalize(doc).Title
	page, err := render.HTML(title, visual)
	if err != nil {
		middleware.LoggerOr(c, h.logger).Error("render html failed", slog.Any("error", err))
		Internal(c, "Server error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
