package render

// Target 表示输出介质：屏幕预览或纸张（PDF）。
type Target string

const (
	TargetScreen Target = "screen"
	TargetPaper  Target = "paper"
)

// ParseTarget maps free text to a Target, defaulting to the screen.
func ParseTarget(value string) Target {
	if Target(value) == TargetPaper {
		return TargetPaper
	}
	return TargetScreen
}

// SectionKind identifies a block of the rendered resume.
type SectionKind string

const (
	SectionHeader         SectionKind = "header"
	SectionSummary        SectionKind = "summary"
	SectionExperience     SectionKind = "experience"
	SectionEducation      SectionKind = "education"
	SectionSkills         SectionKind = "skills"
	SectionProjects       SectionKind = "projects"
	SectionCertifications SectionKind = "certifications"
	SectionAchievements   SectionKind = "achievements"
	SectionLanguages      SectionKind = "languages"
	SectionHobbies        SectionKind = "hobbies"
)

// SectionOrder is the fixed order shared by every template.
var SectionOrder = []SectionKind{
	SectionHeader,
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionProjects,
	SectionCertifications,
	SectionAchievements,
	SectionLanguages,
	SectionHobbies,
}

// Layout decides how a section's items are drawn.
type Layout string

const (
	LayoutHeader    Layout = "header"
	LayoutParagraph Layout = "paragraph"
	LayoutList      Layout = "list"
	LayoutChips     Layout = "chips"
)

// VisualDocument 是模板渲染的结果树，屏幕预览与 PDF 导出共用同一份。
type VisualDocument struct {
	TemplateID string    `json:"templateId"`
	Target     Target    `json:"target"`
	Page       PageSpec  `json:"page"`
	Theme      Theme     `json:"theme"`
	Sections   []Section `json:"sections"`
}

// PageSpec is layout chrome only; it never influences section selection or text.
type PageSpec struct {
	Size       string  `json:"size,omitempty"`
	WidthMM    float64 `json:"widthMm,omitempty"`
	HeightMM   float64 `json:"heightMm,omitempty"`
	MarginMM   float64 `json:"marginMm,omitempty"`
	MaxWidthPx int     `json:"maxWidthPx,omitempty"`
}

type Section struct {
	Kind    SectionKind `json:"kind"`
	Title   string      `json:"title,omitempty"`
	Icon    string      `json:"icon,omitempty"`
	Layout  Layout      `json:"layout"`
	Header  *Header     `json:"header,omitempty"`
	Text    string      `json:"text,omitempty"`
	Entries []Entry     `json:"entries,omitempty"`
	Chips   []string    `json:"chips,omitempty"`
}

type Header struct {
	Name     string    `json:"name"`
	Contacts []Contact `json:"contacts"`
}

type Contact struct {
	Kind  string `json:"kind"`
	Icon  string `json:"icon,omitempty"`
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}

// Entry is one item of an ordered list section.
type Entry struct {
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle,omitempty"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	DateRange  string   `json:"dateRange,omitempty"`
	Meta       string   `json:"meta,omitempty"`
	Link       string   `json:"link,omitempty"`
	Body       string   `json:"body,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

// Kinds lists the section kinds in output order.
func (v VisualDocument) Kinds() []SectionKind {
	kinds := make([]SectionKind, 0, len(v.Sections))
	for _, s := range v.Sections {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

// Section returns the section of the given kind, if it was emitted.
func (v VisualDocument) Section(kind SectionKind) (Section, bool) {
	for _, s := range v.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}
