// Package builder 实现分步编辑简历的工作流：草稿缓存、AI 辅助、校验后保存与预览。
package builder

import (
	"context"

	"resumeBuilder/internal/ai"
	"resumeBuilder/internal/resume"
)

// Store persists documents for the signed-in user. *client.Session implements it.
type Store interface {
	Get(ctx context.Context, id string) (resume.Document, error)
	Create(ctx context.Context, doc resume.Document) (resume.Document, error)
	Update(ctx context.Context, id string, doc resume.Document) (resume.Document, error)
}

// Assistant is the generative text backend. *client.Session implements it over HTTP,
// *ai.Service in process.
type Assistant interface {
	GenerateSummary(ctx context.Context, req ai.SummaryRequest) (string, error)
	EnhanceContent(ctx context.Context, req ai.EnhanceRequest) (string, error)
	GenerateJobDescription(ctx context.Context, req ai.JobDescriptionRequest) (string, error)
	SuggestSkills(ctx context.Context, req ai.SuggestSkillsRequest) ([]resume.Skill, error)
	MatchJob(ctx context.Context, req ai.MatchJobRequest) (ai.MatchResult, error)
}

// DraftCache mirrors the in-progress draft so an interrupted session can be resumed.
type DraftCache interface {
	Load() (resume.Document, bool, error)
	Save(doc resume.Document) error
	Clear() error
}
