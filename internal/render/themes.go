package render

import "resumeBuilder/internal/resume"

// Theme holds every presentation choice a template makes. Section selection is not one of them.
type Theme struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Accent       string                 `json:"accent"`
	Text         string                 `json:"text"`
	Muted        string                 `json:"muted"`
	Background   string                 `json:"background"`
	Surface      string                 `json:"surface"`
	HeaderFill   string                 `json:"headerFill,omitempty"`
	HeaderText   string                 `json:"headerText,omitempty"`
	FontFamily   string                 `json:"fontFamily"`
	HeaderAlign  string                 `json:"headerAlign"`
	Uppercase    bool                   `json:"uppercase"`
	PresentLabel string                 `json:"presentLabel"`
	LinkedInText string                 `json:"linkedinText"`
	WebsiteText  string                 `json:"websiteText"`
	Titles       map[SectionKind]string `json:"titles"`
	Icons        map[SectionKind]string `json:"icons,omitempty"`
	ContactIcons map[string]string      `json:"contactIcons,omitempty"`
}

func (t Theme) title(kind SectionKind) string {
	if title, ok := t.Titles[kind]; ok {
		return title
	}
	return string(kind)
}

var titleCaseTitles = map[SectionKind]string{
	SectionSummary:        "Profile",
	SectionExperience:     "Experience",
	SectionEducation:      "Education",
	SectionSkills:         "Skills",
	SectionProjects:       "Projects",
	SectionCertifications: "Certifications",
	SectionAchievements:   "Achievements",
	SectionLanguages:      "Languages",
	SectionHobbies:        "Hobbies & Interests",
}

func withTitles(overrides map[SectionKind]string) map[SectionKind]string {
	titles := make(map[SectionKind]string, len(titleCaseTitles))
	for k, v := range titleCaseTitles {
		titles[k] = v
	}
	for k, v := range overrides {
		titles[k] = v
	}
	return titles
}

var builtinThemes = []Theme{
	{
		ID:           resume.TemplateClassic,
		Name:         "Classic",
		Accent:       "#111827",
		Text:         "#1f2937",
		Muted:        "#4b5563",
		Background:   "#ffffff",
		Surface:      "#f3f4f6",
		FontFamily:   "Georgia, 'Times New Roman', serif",
		HeaderAlign:  "center",
		Uppercase:    true,
		PresentLabel: "Present",
		LinkedInText: "LinkedIn",
		WebsiteText:  "Portfolio",
		Titles: map[SectionKind]string{
			SectionSummary:        "PROFESSIONAL SUMMARY",
			SectionExperience:     "PROFESSIONAL EXPERIENCE",
			SectionEducation:      "EDUCATION",
			SectionSkills:         "SKILLS",
			SectionProjects:       "PROJECTS",
			SectionCertifications: "CERTIFICATIONS",
			SectionAchievements:   "ACHIEVEMENTS",
			SectionLanguages:      "LANGUAGES",
			SectionHobbies:        "HOBBIES & INTERESTS",
		},
	},
	{
		ID:           resume.TemplateModern,
		Name:         "Modern",
		Accent:       "#2563eb",
		Text:         "#1f2937",
		Muted:        "#4b5563",
		Background:   "#ffffff",
		Surface:      "#f3f4f6",
		FontFamily:   "'Inter', 'Helvetica Neue', Arial, sans-serif",
		HeaderAlign:  "left",
		PresentLabel: "Present",
		LinkedInText: "LinkedIn",
		WebsiteText:  "Portfolio",
		Titles:       withTitles(map[SectionKind]string{SectionExperience: "Professional Experience"}),
		ContactIcons: map[string]string{"email": "✉", "phone": "☎", "address": "⌂", "linkedin": "in", "website": "⌘"},
	},
	{
		ID:           resume.TemplateMinimalist,
		Name:         "Minimalist",
		Accent:       "#374151",
		Text:         "#111827",
		Muted:        "#6b7280",
		Background:   "#ffffff",
		Surface:      "#ffffff",
		FontFamily:   "'Helvetica Neue', Arial, sans-serif",
		HeaderAlign:  "left",
		PresentLabel: "Present",
		LinkedInText: "LinkedIn",
		WebsiteText:  "Portfolio",
		Titles:       withTitles(nil),
	},
	{
		ID:           resume.TemplateElegant,
		Name:         "Elegant",
		Accent:       "#7e22ce",
		Text:         "#374151",
		Muted:        "#6b7280",
		Background:   "#fafafa",
		Surface:      "#f5f3ff",
		HeaderFill:   "linear-gradient(90deg, #9333ea, #2563eb)",
		HeaderText:   "#ffffff",
		FontFamily:   "'Playfair Display', Georgia, serif",
		HeaderAlign:  "center",
		PresentLabel: "Present",
		LinkedInText: "LinkedIn",
		WebsiteText:  "Portfolio",
		Titles:       withTitles(map[SectionKind]string{SectionSummary: "About Me"}),
	},
	{
		ID:           resume.TemplateCreative,
		Name:         "Creative",
		Accent:       "#c2410c",
		Text:         "#374151",
		Muted:        "#6b7280",
		Background:   "#ffffff",
		Surface:      "#fff7ed",
		HeaderFill:   "linear-gradient(90deg, rgba(251,146,60,.1), rgba(236,72,153,.1))",
		FontFamily:   "'Poppins', 'Helvetica Neue', Arial, sans-serif",
		HeaderAlign:  "left",
		PresentLabel: "Present",
		LinkedInText: "LinkedIn",
		WebsiteText:  "Portfolio",
		Titles:       withTitles(map[SectionKind]string{SectionSummary: "About Me"}),
		Icons: map[SectionKind]string{
			SectionSummary:        "✨",
			SectionExperience:     "💼",
			SectionEducation:      "🎓",
			SectionSkills:         "🚀",
			SectionProjects:       "🛠️",
			SectionCertifications: "🏆",
			SectionAchievements:   "⭐",
			SectionLanguages:      "🌍",
			SectionHobbies:        "🎨",
		},
		ContactIcons: map[string]string{"email": "📧", "phone": "📱", "address": "📍", "linkedin": "🔗", "website": "🌐"},
	},
	{
		ID:           resume.TemplateBold,
		Name:         "Bold",
		Accent:       "#facc15",
		Text:         "#ffffff",
		Muted:        "#d1d5db",
		Background:   "#111827",
		Surface:      "#1f2937",
		HeaderFill:   "linear-gradient(90deg, #dc2626, #eab308)",
		HeaderText:   "#ffffff",
		FontFamily:   "'Montserrat', Arial, sans-serif",
		HeaderAlign:  "center",
		Uppercase:    true,
		PresentLabel: "PRESENT",
		LinkedInText: "LINKEDIN",
		WebsiteText:  "PORTFOLIO",
		Titles: map[SectionKind]string{
			SectionSummary:        "SUMMARY",
			SectionExperience:     "EXPERIENCE",
			SectionEducation:      "EDUCATION",
			SectionSkills:         "SKILLS",
			SectionProjects:       "PROJECTS",
			SectionCertifications: "CERTIFICATIONS",
			SectionAchievements:   "ACHIEVEMENTS",
			SectionLanguages:      "LANGUAGES",
			SectionHobbies:        "HOBBIES & INTERESTS",
		},
	},
}
