package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeBuilder/internal/api/middleware"
	"resumeBuilder/internal/auth"
	"resumeBuilder/internal/render"
)

// Deps 汇总路由需要的全部协作者。Queue、Objects、Notify 为空时对应路由不注册。
type Deps struct {
	DB             *gorm.DB
	Auth           *auth.AuthService
	Redis          AuthRedis
	Notify         NotifySubscriber
	Resumes        ResumeStore
	Templates      *render.Registry
	Assistant      Assistant
	Queue          Enqueuer
	Objects        ExportObjects
	LoginGuard     LoginGuard
	CookieSecure   bool
	ExportMaxRetry int
	LinkTTL        time.Duration
	AllowedOrigins []string
	Logger         *slog.Logger
}

// RegisterRoutes 在 /api 前缀下注册全部业务路由。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	templates := deps.Templates
	if templates == nil {
		templates = render.NewRegistry()
	}

	authHandler := NewAuthHandler(deps.DB, deps.Auth, deps.Redis, logger, deps.LoginGuard, deps.CookieSecure)
	resumeHandler := NewResumeHandler(deps.Resumes, deps.Objects, logger)
	renderHandler := NewRenderHandler(deps.Resumes, templates, logger)
	aiHandler := NewAIHandler(deps.Assistant, logger)
	authMiddleware := middleware.AuthMiddleware(deps.Auth)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/templates", renderHandler.ListTemplates)

		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/user", authMiddleware, authHandler.CurrentUser)
		}

		resumeGroup := apiGroup.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.POST("/preview", renderHandler.PreviewDraft)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PUT("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.GET("/:id/render", renderHandler.RenderResume)
			resumeGroup.GET("/:id/preview", renderHandler.PreviewResume)

			if deps.Queue != nil && deps.Objects != nil {
				exportHandler := NewExportHandler(deps.Resumes, deps.Queue, deps.Objects, deps.ExportMaxRetry, deps.LinkTTL, logger)
				resumeGroup.POST("/:id/export", exportHandler.RequestExport)
				resumeGroup.GET("/:id/download-link", exportHandler.DownloadLink)
			}
		}

		aiGroup := apiGroup.Group("/ai")
		aiGroup.Use(authMiddleware)
		{
			aiGroup.POST("/generate-summary", aiHandler.GenerateSummary)
			aiGroup.POST("/enhance-resume", aiHandler.EnhanceContent)
			aiGroup.POST("/generate-job-description", aiHandler.GenerateJobDescription)
			aiGroup.POST("/suggest-skills", aiHandler.SuggestSkills)
			aiGroup.POST("/match-job", aiHandler.MatchJob)
		}

		if deps.Notify != nil {
			wsHandler := NewWsHandler(deps.Notify, deps.Auth, logger, deps.AllowedOrigins)
			apiGroup.GET("/ws", wsHandler.HandleConnection)
		}
	}
}
