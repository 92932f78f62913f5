package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"resumeBuilder/internal/ai"
	"resumeBuilder/internal/render"
	"resumeBuilder/internal/resume"
)

var (
	// ErrBusy is returned when an AI request or a save is already in flight.
	ErrBusy = errors.New("another request is in progress")
	// ErrSuperseded means the field changed after the AI request was issued; the result was dropped.
	ErrSuperseded = errors.New("result discarded: field changed since the request was issued")
	// ErrNoSuchEntry is returned for an out-of-range list index.
	ErrNoSuchEntry = errors.New("no such entry")
)

// Mode 是工作流所处的界面状态。
type Mode string

const (
	ModeLoading Mode = "loading"
	ModeEditing Mode = "editing"
	ModePreview Mode = "preview"
)

// Steps run from FirstStep to LastStep; the last one picks the template.
const (
	FirstStep = 1
	LastStep  = 8
)

var stepTitles = [...]string{
	1: "Personal Information",
	2: "Work Experience",
	3: "Education",
	4: "Skills",
	5: "Professional Summary",
	6: "Projects",
	7: "More Details (Certifications, Achievements, Languages, Hobbies)",
	8: "Choose Template",
}

// StepTitle returns the heading of a step, or "" when out of range.
func StepTitle(step int) string {
	if step < FirstStep || step > LastStep {
		return ""
	}
	return stepTitles[step]
}

// Field keys used by Edit. A nested key such as "experience[2].description" is also
// invalidated by an edit of its section ("experience").
const (
	FieldTitle        = "title"
	FieldPersonalInfo = "personalInfo"
	FieldSummary      = "summary"
	FieldEducation    = "education"
	FieldExperience   = "experience"
	FieldSkills       = "skills"
	FieldProjects     = "projects"
	FieldMoreDetails  = "moreDetails"
	FieldTemplate     = "templateId"
)

func experienceDescriptionField(index int) string {
	return fmt.Sprintf("%s[%d].description", FieldExperience, index)
}

// sectionOf returns the top-level key of a field key.
func sectionOf(key string) string {
	if end := strings.IndexAny(key, ".["); end >= 0 {
		return key[:end]
	}
	return key
}

// Options tune a Workflow; zero values pick the defaults.
type Options struct {
	Templates  *render.Registry
	ErrorTTL   time.Duration
	SuccessTTL time.Duration
	Logger     *slog.Logger
}

// State is a copy of the workflow state for display.
type State struct {
	ID        string
	Mode      Mode
	Step      int
	StepTitle string
	Saving    bool
	Loading   bool
	Notice    *Notice
	Document  resume.Document
	// Preview is the screen layout of the draft, kept current in ModePreview and on LastStep.
	Preview   *render.VisualDocument
}

// Workflow 持有一份草稿及其编辑状态，可被 UI 事件与网络回调并发调用。
type Workflow struct {
	mu sync.Mutex

	store     Store
	assistant Assistant
	cache     DraftCache
	templates *render.Registry
	logger    *slog.Logger

	id      string
	doc     resume.Document
	mode    Mode
	step    int
	saving  bool
	loading bool
	preview *render.VisualDocument

	notice      *Notice
	noticeTimer *time.Timer
	errorTTL    time.Duration
	successTTL  time.Duration

	// seq 单调递增；changed 记录每个字段最近一次被编辑或发起请求时的序号。
	seq     uint64
	changed map[string]uint64
}

// Open starts a workflow. With an id it loads that resume from the store; otherwise it
// resumes the cached draft, or starts from a blank document. A load failure leaves a
// usable blank workflow with an error notice and is also returned.
func Open(ctx context.Context, store Store, assistant Assistant, cache DraftCache, id string, opts Options) (*Workflow, error) {
	w := New(store, assistant, cache, opts)
	if id != "" && id != "new" {
		return w, w.Load(ctx, id)
	}
	w.resumeDraft()
	return w, nil
}

// New returns a workflow on a blank draft at FirstStep.
func New(store Store, assistant Assistant, cache DraftCache, opts Options) *Workflow {
	w := &Workflow{
		store:      store,
		assistant:  assistant,
		cache:      cache,
		templates:  opts.Templates,
		logger:     opts.Logger,
		step:       FirstStep,
		mode:       ModeEditing,
		errorTTL:   opts.ErrorTTL,
		successTTL: opts.SuccessTTL,
		changed:    map[string]uint64{},
		doc:        resume.Normalize(resume.Document{}),
	}
	if w.templates == nil {
		w.templates = render.NewRegistry()
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.errorTTL <= 0 {
		w.errorTTL = ErrorNoticeTTL
	}
	if w.successTTL <= 0 {
		w.successTTL = SuccessNoticeTTL
	}
	return w
}

// Load replaces the draft with the stored resume id. The workflow reports ModeLoading
// until the store answers; on failure it keeps the current draft and shows an error.
func (w *Workflow) Load(ctx context.Context, id string) error {
	w.mu.Lock()
	w.mode = ModeLoading
	w.preview = nil
	w.mu.Unlock()

	doc, err := w.store.Get(ctx, id)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = ModeEditing
	if err != nil {
		w.setNotice(NoticeError, "Failed to load resume data")
		return fmt.Errorf("load resume %s: %w", id, err)
	}
	w.id = id
	w.doc = resume.Normalize(doc)
	w.refreshPreview()
	return nil
}

// resumeDraft seeds the draft from the cache when one was left behind.
func (w *Workflow) resumeDraft() {
	if w.cache == nil {
		return
	}
	cached, ok, err := w.cache.Load()
	if err != nil {
		w.logger.Warn("load draft cache failed", slog.Any("error", err))
	}
	if ok {
		w.mu.Lock()
		w.doc = resume.Normalize(cached)
		w.mu.Unlock()
	}
}

// State returns a snapshot; the document is a deep-enough copy to be read freely.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	var notice *Notice
	if w.notice != nil {
		n := *w.notice
		notice = &n
	}
	return State{
		ID:        w.id,
		Mode:      w.mode,
		Step:      w.step,
		StepTitle: StepTitle(w.step),
		Saving:    w.saving,
		Loading:   w.loading,
		Notice:    notice,
		Document:  resume.Normalize(w.doc),
		Preview:   w.preview,
	}
}

// Close stops pending notice timers.
func (w *Workflow) Close() {
	w.DismissNotice()
}

// Next moves one step forward, stopping at LastStep.
func (w *Workflow) Next() int { return w.GoTo(w.currentStep() + 1) }

// Previous moves one step back, stopping at FirstStep.
func (w *Workflow) Previous() int { return w.GoTo(w.currentStep() - 1) }

// GoTo jumps to step, clamped to [FirstStep, LastStep].
func (w *Workflow) GoTo(step int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.userAction()
	w.step = min(max(step, FirstStep), LastStep)
	w.refreshPreview()
	return w.step
}

func (w *Workflow) currentStep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// TogglePreview switches between editing and preview; entering preview renders the draft.
// It is a no-op while a resume is loading.
func (w *Workflow) TogglePreview() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.userAction()
	switch w.mode {
	case ModePreview:
		w.mode = ModeEditing
	case ModeEditing:
		w.mode = ModePreview
	}
	w.refreshPreview()
	return w.mode
}

// refreshPreview re-renders the draft when it is on screen. Caller holds w.mu.
func (w *Workflow) refreshPreview() {
	if w.mode != ModePreview && w.step != LastStep {
		w.preview = nil
		return
	}
	visual := w.templates.Render(w.doc, "", render.TargetScreen)
	w.preview = &visual
}

// Edit mutates the draft. field names the section being changed so that pending AI
// results for it are discarded when they arrive.
func (w *Workflow) Edit(field string, fn func(doc *resume.Document)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.userAction()
	fn(&w.doc)
	w.doc = resume.Normalize(w.doc)
	w.touch(field)
	w.mirror()
	w.refreshPreview()
}

// SelectTemplate sets the template; unknown ids resolve to the default.
func (w *Workflow) SelectTemplate(id string) {
	w.Edit(FieldTemplate, func(doc *resume.Document) {
		doc.TemplateID = resume.ResolveTemplateID(id)
	})
}

// Render lays out the live draft with its selected template.
func (w *Workflow) Render(target render.Target) render.VisualDocument {
	w.mu.Lock()
	doc := w.doc
	w.mu.Unlock()
	return w.templates.Render(doc, "", target)
}

// PreviewHTML renders the live draft as a standalone HTML page.
func (w *Workflow) PreviewHTML(target render.Target) ([]byte, error) {
	visual := w.Render(target)
	w.mu.Lock()
	title := w.doc.Title
	w.mu.Unlock()
	return render.HTML(title, visual)
}

// userAction clears an error banner, as any new user input does. Caller holds w.mu.
func (w *Workflow) userAction() {
	if w.notice != nil && w.notice.Kind == NoticeError {
		w.clearNotice()
	}
}

// touch records a change of key. Caller holds w.mu.
func (w *Workflow) touch(key string) uint64 {
	w.seq++
	w.changed[key] = w.seq
	return w.seq
}

// stale reports whether key or its section changed after issued. Caller holds w.mu.
func (w *Workflow) stale(key string, issued uint64) bool {
	return w.changed[key] > issued || w.changed[sectionOf(key)] > issued
}

// mirror writes the draft to the cache until the document has a server id. Caller holds w.mu.
func (w *Workflow) mirror() {
	if w.cache == nil || w.id != "" {
		return
	}
	if err := w.cache.Save(w.doc); err != nil {
		w.logger.Warn("save draft cache failed", slog.Any("error", err))
	}
}

// Save validates the draft and creates or updates it. The first successful save binds
// the server id and clears the draft cache.
func (w *Workflow) Save(ctx context.Context) error {
	w.mu.Lock()
	if w.saving {
		w.mu.Unlock()
		return ErrBusy
	}
	w.clearNotice()

	valid, err := resume.ValidateForSave(w.doc)
	if err != nil {
		var verrs resume.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			w.setNotice(NoticeError, validationNotice(verrs[0]))
		} else {
			w.setNotice(NoticeError, err.Error())
		}
		w.mu.Unlock()
		return err
	}
	w.saving = true
	id := w.id
	w.mu.Unlock()

	var saved resume.Document
	if id == "" {
		saved, err = w.store.Create(ctx, valid)
	} else {
		saved, err = w.store.Update(ctx, id, valid)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.saving = false
	if err != nil {
		w.setNotice(NoticeError, "Failed to save resume: "+err.Error())
		return err
	}

	// 保存期间的编辑保留在草稿中，只采用服务端分配的字段。
	w.doc.ID = saved.ID
	w.doc.OwnerID = saved.OwnerID
	w.doc.CreatedAt = saved.CreatedAt
	w.doc.UpdatedAt = saved.UpdatedAt
	if w.cache != nil {
		if err := w.cache.Clear(); err != nil {
			w.logger.Warn("clear draft cache failed", slog.Any("error", err))
		}
	}
	if id == "" {
		w.id = saved.ID
		w.setNotice(NoticeSuccess, "Resume saved successfully!")
	} else {
		w.setNotice(NoticeSuccess, "Resume updated successfully!")
	}
	return nil
}

func validationNotice(fe resume.FieldError) string {
	switch fe.Field {
	case "personalInfo.fullName":
		return "Please fill in your full name in the Personal Information section"
	case "personalInfo.email":
		return "Please fill in your email in the Personal Information section"
	}
	return fmt.Sprintf("%s %s", fe.Field, fe.Message)
}

// begin marks an AI request for key as in flight and returns its issue number and a
// copy of the draft to build the request from.
func (w *Workflow) begin(key string) (uint64, resume.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loading {
		return 0, resume.Document{}, ErrBusy
	}
	w.loading = true
	w.clearNotice()
	return w.touch(key), resume.Normalize(w.doc), nil
}

// finish applies an AI result unless it failed or went stale. apply reports false when
// its target entry no longer exists.
func (w *Workflow) finish(key string, issued uint64, err error, apply func(doc *resume.Document) bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err != nil {
		w.setNotice(NoticeError, err.Error())
		return err
	}
	if w.stale(key, issued) {
		w.logger.Info("discarding stale ai result", slog.String("field", key))
		return ErrSuperseded
	}
	if apply == nil {
		return nil
	}
	if !apply(&w.doc) {
		return ErrNoSuchEntry
	}
	w.doc = resume.Normalize(w.doc)
	w.mirror()
	w.refreshPreview()
	return nil
}

// fail ends a request that was rejected before reaching the assistant.
func (w *Workflow) fail(err error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	w.setNotice(NoticeError, err.Error())
	return err
}

// GenerateSummary writes a summary from the skills, experience and education in the draft.
func (w *Workflow) GenerateSummary(ctx context.Context) error {
	issued, doc, err := w.begin(FieldSummary)
	if err != nil {
		return err
	}
	summary, err := w.assistant.GenerateSummary(ctx, ai.SummaryRequest{
		Skills:     doc.Skills,
		Experience: doc.Experience,
		Education:  doc.Education,
	})
	return w.finish(FieldSummary, issued, err, func(d *resume.Document) bool {
		d.Summary = summary
		return true
	})
}

// EnhanceSummary rewrites the current summary.
func (w *Workflow) EnhanceSummary(ctx context.Context) error {
	issued, doc, err := w.begin(FieldSummary)
	if err != nil {
		return err
	}
	if strings.TrimSpace(doc.Summary) == "" {
		return w.fail(errors.New("Please write a summary first"))
	}
	enhanced, err := w.assistant.EnhanceContent(ctx, ai.EnhanceRequest{Section: "summary", Content: doc.Summary})
	return w.finish(FieldSummary, issued, err, func(d *resume.Document) bool {
		d.Summary = enhanced
		return true
	})
}

// GenerateJobDescription fills the description of experience entry index from its position and company.
func (w *Workflow) GenerateJobDescription(ctx context.Context, index int) error {
	key := experienceDescriptionField(index)
	issued, doc, err := w.begin(key)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(doc.Experience) {
		return w.fail(ErrNoSuchEntry)
	}
	entry := doc.Experience[index]
	if strings.TrimSpace(entry.Position) == "" {
		return w.fail(errors.New("Please enter a job title first"))
	}
	description, err := w.assistant.GenerateJobDescription(ctx, ai.JobDescriptionRequest{
		JobTitle: entry.Position,
		Company:  entry.Company,
	})
	return w.finish(key, issued, err, setExperienceDescription(index, entry.ID, description))
}

// EnhanceExperience rewrites the description of experience entry index.
func (w *Workflow) EnhanceExperience(ctx context.Context, index int) error {
	key := experienceDescriptionField(index)
	issued, doc, err := w.begin(key)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(doc.Experience) {
		return w.fail(ErrNoSuchEntry)
	}
	entry := doc.Experience[index]
	if strings.TrimSpace(entry.Description) == "" {
		return w.fail(errors.New("Please write a description first"))
	}
	enhanced, err := w.assistant.EnhanceContent(ctx, ai.EnhanceRequest{Section: "experience", Content: entry.Description})
	return w.finish(key, issued, err, setExperienceDescription(index, entry.ID, enhanced))
}

func setExperienceDescription(index int, id, text string) func(*resume.Document) bool {
	return func(d *resume.Document) bool {
		if index >= len(d.Experience) || d.Experience[index].ID != id {
			return false
		}
		d.Experience[index].Description = text
		return true
	}
}

// SuggestSkills appends suggested skills the draft does not list yet and returns them.
func (w *Workflow) SuggestSkills(ctx context.Context) ([]resume.Skill, error) {
	issued, doc, err := w.begin(FieldSkills)
	if err != nil {
		return nil, err
	}
	suggested, err := w.assistant.SuggestSkills(ctx, ai.SuggestSkillsRequest{
		Experience: doc.Experience,
		Education:  doc.Education,
		Summary:    doc.Summary,
	})
	var added []resume.Skill
	err = w.finish(FieldSkills, issued, err, func(d *resume.Document) bool {
		have := make(map[string]bool, len(d.Skills))
		for _, s := range d.Skills {
			have[strings.ToLower(strings.TrimSpace(s.Name))] = true
		}
		for _, s := range suggested {
			name := strings.ToLower(strings.TrimSpace(s.Name))
			if name == "" || have[name] {
				continue
			}
			have[name] = true
			added = append(added, s)
		}
		d.Skills = append(d.Skills, added...)
		return true
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// EnhanceText improves free text for section without touching the draft.
func (w *Workflow) EnhanceText(ctx context.Context, section, content string) (string, error) {
	key := "enhance:" + section
	issued, _, err := w.begin(key)
	if err != nil {
		return "", err
	}
	enhanced, err := w.assistant.EnhanceContent(ctx, ai.EnhanceRequest{Section: section, Content: content})
	if err := w.finish(key, issued, err, nil); err != nil {
		return "", err
	}
	return enhanced, nil
}

// MatchJob scores the draft against a job description.
func (w *Workflow) MatchJob(ctx context.Context, jobDescription string) (ai.MatchResult, error) {
	const key = "match"
	issued, doc, err := w.begin(key)
	if err != nil {
		return ai.MatchResult{}, err
	}
	if strings.TrimSpace(jobDescription) == "" {
		return ai.MatchResult{}, w.fail(errors.New("Please paste a job description first"))
	}
	result, err := w.assistant.MatchJob(ctx, ai.MatchJobRequest{ResumeData: doc, JobDescription: jobDescription})
	if err := w.finish(key, issued, err, nil); err != nil {
		return ai.MatchResult{}, err
	}
	return result, nil
}
