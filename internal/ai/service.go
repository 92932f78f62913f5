// Package ai 封装简历相关的生成式文本能力：摘要、润色、工作描述、技能建议与职位匹配。
package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"resumeBuilder/internal/metrics"
	"resumeBuilder/internal/resume"
)

// Operation names, used for errors and metrics labels.
const (
	OpSummary        = "generate_summary"
	OpEnhance        = "enhance_content"
	OpJobDescription = "generate_job_description"
	OpSuggestSkills  = "suggest_skills"
	OpMatchJob       = "match_job"
)

// Service is stateless apart from its generator; it is safe for concurrent use.
type Service struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

// NewService wraps gen. A zero timeout leaves deadlines to the caller's context.
func NewService(gen Generator, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, timeout: timeout, logger: logger}
}

type SummaryRequest struct {
	Skills     []resume.Skill      `json:"skills"`
	Experience []resume.Experience `json:"experience"`
	Education  []resume.Education  `json:"education"`
}

// EnhanceRequest 等 AI 请求不做必填校验，空输入照常交给模型，失败统一按 500 返回。
type EnhanceRequest struct {
	Section string `json:"section"`
	Content string `json:"content"`
}

type JobDescriptionRequest struct {
	JobTitle string `json:"jobTitle"`
	Company  string `json:"company"`
}

type SuggestSkillsRequest struct {
	Experience []resume.Experience `json:"experience"`
	Education  []resume.Education  `json:"education"`
	Summary    string              `json:"summary"`
}

type MatchJobRequest struct {
	ResumeData     resume.Document `json:"resumeData"`
	JobDescription string          `json:"jobDescription"`
}

// MatchResult is the analysis text plus a 0-100 score.
type MatchResult struct {
	Analysis   string `json:"analysis"`
	MatchScore int    `json:"matchScore"`
}

type span struct {
	Position, Company, Degree, FieldOfStudy, Institution string
	Start, End, Description                              string
}

// GenerateSummary writes a 2-3 sentence professional summary.
func (s *Service) GenerateSummary(ctx context.Context, req SummaryRequest) (string, error) {
	data := struct {
		Skills     []string
		Experience []span
		Education  []span
	}{}
	for _, sk := range req.Skills {
		if name := strings.TrimSpace(sk.Name); name != "" {
			data.Skills = append(data.Skills, name)
		}
	}
	for _, exp := range req.Experience {
		end := exp.EndDate
		if exp.CurrentlyEmployed {
			end = ""
		}
		data.Experience = append(data.Experience, span{
			Position: exp.Position, Company: exp.Company,
			Start: exp.StartDate, End: end, Description: exp.Description,
		})
	}
	for _, edu := range req.Education {
		data.Education = append(data.Education, span{
			Degree: edu.Degree, FieldOfStudy: edu.FieldOfStudy, Institution: edu.Institution,
			Start: edu.StartDate, End: edu.EndDate,
		})
	}
	return s.complete(ctx, OpSummary, "summary.tmpl", data)
}

// EnhanceContent rewrites section text as a numbered list.
func (s *Service) EnhanceContent(ctx context.Context, req EnhanceRequest) (string, error) {
	if strings.TrimSpace(req.Section) == "" {
		req.Section = "resume"
	}
	return s.complete(ctx, OpEnhance, "enhance.tmpl", req)
}

// GenerateJobDescription writes 2-3 numbered accomplishments for a role.
func (s *Service) GenerateJobDescription(ctx context.Context, req JobDescriptionRequest) (string, error) {
	req.JobTitle = strings.TrimSpace(req.JobTitle)
	req.Company = strings.TrimSpace(req.Company)
	return s.complete(ctx, OpJobDescription, "job_description.tmpl", req)
}

// SuggestSkills asks for a comma separated list and parses it into Intermediate skills.
func (s *Service) SuggestSkills(ctx context.Context, req SuggestSkillsRequest) ([]resume.Skill, error) {
	text, err := s.complete(ctx, OpSuggestSkills, "suggest_skills.tmpl", req)
	if err != nil {
		return nil, err
	}
	return ParseSkills(text), nil
}

// ParseSkills splits a comma separated model answer into skills defaulted to Intermediate.
func ParseSkills(text string) []resume.Skill {
	skills := make([]resume.Skill, 0)
	for _, part := range strings.Split(text, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		skills = append(skills, resume.Skill{Name: name, Level: resume.LevelIntermediate})
	}
	return skills
}

// MatchJob analyses a resume against a job description and scores the fit.
func (s *Service) MatchJob(ctx context.Context, req MatchJobRequest) (MatchResult, error) {
	doc := resume.Normalize(req.ResumeData)
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return MatchResult{}, err
	}
	analysis, err := s.complete(ctx, OpMatchJob, "match_job.tmpl", struct {
		Resume, JobDescription string
	}{string(encoded), req.JobDescription})
	if err != nil {
		return MatchResult{}, err
	}
	return MatchResult{
		Analysis:   analysis,
		MatchScore: MatchScore(analysis, ResumeText(doc), req.JobDescription),
	}, nil
}

func (s *Service) complete(ctx context.Context, op, promptName string, data any) (string, error) {
	prompt, err := renderPrompt(promptName, data)
	if err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	text, err := s.gen.Generate(ctx, prompt)
	metrics.ObserveAICall(op, started, err)
	if err != nil {
		s.logger.Error("ai generation failed", slog.String("operation", op), slog.Any("error", err))
		return "", &UpstreamError{Op: op, Err: err}
	}
	return StripMarkup(text), nil
}
