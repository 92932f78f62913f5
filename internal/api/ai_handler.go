package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeBuilder/internal/ai"
	"resumeBuilder/internal/api/middleware"
	"resumeBuilder/internal/resume"
)

// Messages returned when a generation call fails.
const (
	MsgSummaryFailed        = "Error generating summary"
	MsgEnhanceFailed        = "Error enhancing content"
	MsgJobDescriptionFailed = "Error generating experience description"
	MsgSuggestSkillsFailed  = "Error suggesting skills"
	MsgMatchJobFailed       = "Error matching job description"
)

// Assistant 是 AI 路由依赖的生成能力，由 *ai.Service 实现。
type Assistant interface {
	GenerateSummary(ctx context.Context, req ai.SummaryRequest) (string, error)
	EnhanceContent(ctx context.Context, req ai.EnhanceRequest) (string, error)
	GenerateJobDescription(ctx context.Context, req ai.JobDescriptionRequest) (string, error)
	SuggestSkills(ctx context.Context, req ai.SuggestSkillsRequest) ([]resume.Skill, error)
	MatchJob(ctx context.Context, req ai.MatchJobRequest) (ai.MatchResult, error)
}

// AIHandler 暴露五个生成式接口。
type AIHandler struct {
	assistant Assistant
	logger    *slog.Logger
}

// NewAIHandler 构造 AIHandler。
func NewAIHandler(assistant Assistant, logger *slog.Logger) *AIHandler {
	return &AIHandler{assistant: assistant, logger: logger}
}

// GenerateSummary POST /ai/generate-summary -> {summary}
func (h *AIHandler) GenerateSummary(c *gin.Context) {
	var req ai.SummaryRequest
	if !bindAI(c, &req) {
		return
	}
	summary, err := h.assistant.GenerateSummary(c.Request.Context(), req)
	if err != nil {
		h.failed(c, MsgSummaryFailed, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// EnhanceContent POST /ai/enhance-resume -> {enhancedContent}
func (h *AIHandler) EnhanceContent(c *gin.Context) {
	var req ai.EnhanceRequest
	if !bindAI(c, &req) {
		return
	}
	enhanced, err := h.assistant.EnhanceContent(c.Request.Context(), req)
	if err != nil {
		h.failed(c, MsgEnhanceFailed, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enhancedContent": enhanced})
}

// GenerateJobDescription POST /ai/generate-job-description -> {description}
func (h *AIHandler) GenerateJobDescription(c *gin.Context) {
	var req ai.JobDescriptionRequest
	if !bindAI(c, &req) {
		return
	}
	description, err := h.assistant.GenerateJobDescription(c.Request.Context(), req)
	if err != nil {
		h.failed(c, MsgJobDescriptionFailed, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"description": description})
}

// SuggestSkills POST /ai/suggest-skills -> {skills}
func (h *AIHandler) SuggestSkills(c *gin.Context) {
	var req ai.SuggestSkillsRequest
	if !bindAI(c, &req) {
		return
	}
	skills, err := h.assistant.SuggestSkills(c.Request.Context(), req)
	if err != nil {
		h.failed(c, MsgSuggestSkillsFailed, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// MatchJob POST /ai/match-job -> {analysis, matchScore}
func (h *AIHandler) MatchJob(c *gin.Context) {
	var req ai.MatchJobRequest
	if !bindAI(c, &req) {
		return
	}
	result, err := h.assistant.MatchJob(c.Request.Context(), req)
	if err != nil {
		h.failed(c, MsgMatchJobFailed, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func bindAI(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		BadRequest(c, err.Error())
		return false
	}
	return true
}

// failed 回写 500，附带上游原始错误文本。
func (h *AIHandler) failed(c *gin.Context, msg string, err error) {
	middleware.LoggerOr(c, h.logger).Error(msg, slog.Any("error", err))
	upstream := err.Error()
	var ue *ai.UpstreamError
	if errors.As(err, &ue) {
		upstream = ue.Message()
	}
	UpstreamFailed(c, msg, upstream)
}
