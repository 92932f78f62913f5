package render

import (
	"strings"

	"resumeBuilder/internal/resume"
)

var (
	paperPage  = PageSpec{Size: "A4", WidthMM: 210, HeightMM: 297, MarginMM: 12}
	screenPage = PageSpec{MaxWidthPx: 896}
)

// Renderer 是单一的渲染算法，不同模板只换 Theme。
type Renderer struct {
	theme Theme
}

// NewRenderer builds a renderer for the given theme.
func NewRenderer(theme Theme) *Renderer {
	return &Renderer{theme: theme}
}

// Theme returns the presentation tokens of the renderer.
func (r *Renderer) Theme() Theme {
	return r.theme
}

// Render maps a document to its visual tree. The document is normalized first, so a
// partially filled draft renders with its empty sections omitted instead of failing.
func (r *Renderer) Render(doc resume.Document, target Target) VisualDocument {
	doc = resume.Normalize(doc)

	page := screenPage
	if target == TargetPaper {
		page = paperPage
	} else {
		target = TargetScreen
	}

	out := VisualDocument{
		TemplateID: r.theme.ID,
		Target:     target,
		Page:       page,
		Theme:      r.theme,
		Sections:   make([]Section, 0, len(SectionOrder)),
	}
	for _, kind := range SectionOrder {
		if section, ok := r.section(kind, doc); ok {
			out.Sections = append(out.Sections, section)
		}
	}
	return out
}

func (r *Renderer) section(kind SectionKind, doc resume.Document) (Section, bool) {
	s := Section{
		Kind:  kind,
		Title: r.theme.title(kind),
		Icon:  r.theme.Icons[kind],
	}
	md := doc.MoreDetails

	switch kind {
	case SectionHeader:
		if doc.PersonalInfo.IsBlank() {
			return Section{}, false
		}
		s.Title = ""
		s.Layout = LayoutHeader
		s.Header = r.header(doc.PersonalInfo)
	case SectionSummary:
		text := strings.TrimSpace(doc.Summary)
		if text == "" {
			return Section{}, false
		}
		s.Layout = LayoutParagraph
		s.Text = text
	case SectionExperience:
		if len(doc.Experience) == 0 {
			return Section{}, false
		}
		s.Layout = LayoutList
		for _, exp := range doc.Experience {
			s.Entries = append(s.Entries, r.experienceEntry(exp))
		}
	case SectionEducation:
		if len(doc.Education) == 0 {
			return Section{}, false
		}
		s.Layout = LayoutList
		for _, edu := range doc.Education {
			s.Entries = append(s.Entries, r.educationEntry(edu))
		}
	case SectionSkills:
		if len(doc.Skills) == 0 {
			return Section{}, false
		}
		s.Layout = LayoutChips
		for _, skill := range doc.Skills {
			chip := skill.Name
			if skill.Level != "" {
				chip += " (" + skill.Level + ")"
			}
			s.Chips = append(s.Chips, chip)
		}
	case SectionProjects:
		if len(doc.Projects) == 0 {
			return Section{}, false
		}
		s.Layout = LayoutList
		for _, p := range doc.Projects {
			s.Entries = append(s.Entries, projectEntry(p))
		}
	case SectionCertifications:
		if len(md.Certifications) == 0 {
			return Section{}, false
		}
		s.Layout = LayoutList
		for _, c := range md.Certifications {
			s.Entries = append(s.Entries, Entry{Title: c.Name})
		}
	case SectionAchievements:
		if len(md.Achievements) == 0 {
			return Section{}, false
		}
		s.Layout = LayoutList
		for _, a := range md.Achievements {
			s.Entries = append(s.Entries, Entry{Title: a.Description})
		}
	case SectionLanguages:
		if len(md.Languages) == 0 {
			return Section{}, false
		}
		s.Layout = LayoutChips
		for _, l := range md.Languages {
			chip := l.Name
			if l.Proficiency != "" {
				chip += " - " + l.Proficiency
			}
			s.Chips = append(s.Chips, chip)
		}
	case SectionHobbies:
		if len(md.Hobbies) == 0 {
			return Section{}, false
		}
		s.Layout = LayoutChips
		for _, h := range md.Hobbies {
			s.Chips = append(s.Chips, h.Name)
		}
	default:
		return Section{}, false
	}
	return s, true
}

func (r *Renderer) header(info resume.PersonalInfo) *Header {
	h := &Header{Name: strings.TrimSpace(info.FullName), Contacts: []Contact{}}
	add := func(kind, label, href string) {
		if strings.TrimSpace(label) == "" {
			return
		}
		h.Contacts = append(h.Contacts, Contact{
			Kind:  kind,
			Icon:  r.theme.ContactIcons[kind],
			Label: strings.TrimSpace(label),
			Href:  href,
		})
	}
	add("email", info.Email, "mailto:"+strings.TrimSpace(info.Email))
	add("phone", info.Phone, "")
	add("address", info.Address, "")
	if link := strings.TrimSpace(info.LinkedIn); link != "" {
		add("linkedin", r.theme.LinkedInText, link)
	}
	if site := strings.TrimSpace(info.Website); site != "" {
		add("website", r.theme.WebsiteText, site)
	}
	return h
}

func (r *Renderer) experienceEntry(exp resume.Experience) Entry {
	e := Entry{
		Title:      exp.Position,
		Subtitle:   joinNonBlank(" • ", exp.Company, exp.Location),
		Start:      resume.FormatMonthYear(exp.StartDate),
		Body:       strings.TrimSpace(exp.Description),
		Highlights: nonBlank(exp.Highlights),
	}
	if exp.CurrentlyEmployed {
		e.End = r.theme.PresentLabel
	} else {
		e.End = resume.FormatMonthYear(exp.EndDate)
	}
	e.DateRange = spanDates(e.Start, e.End)
	return e
}

func (r *Renderer) educationEntry(edu resume.Education) Entry {
	e := Entry{
		Title:    joinNonBlank(", ", edu.Degree, edu.FieldOfStudy),
		Subtitle: edu.Institution,
		Start:    resume.FormatMonthYear(edu.StartDate),
		End:      resume.FormatMonthYear(edu.EndDate),
		Body:     strings.TrimSpace(edu.Description),
	}
	e.DateRange = spanDates(e.Start, e.End)
	return e
}

func projectEntry(p resume.Project) Entry {
	e := Entry{
		Title: p.Title,
		Start: resume.FormatMonthYear(p.StartDate),
		End:   resume.FormatMonthYear(p.EndDate),
		Link:  strings.TrimSpace(p.Link),
		Body:  strings.TrimSpace(p.Description),
	}
	if len(p.Technologies) > 0 {
		e.Meta = "Technologies: " + p.Technologies.String()
	}
	// 项目只在两端都有日期时才显示连接符。
	e.DateRange = joinNonBlank(" - ", e.Start, e.End)
	return e
}

// spanDates renders "start - end"; a missing end stays blank rather than becoming "Present".
func spanDates(start, end string) string {
	if start == "" && end == "" {
		return ""
	}
	return strings.TrimSpace(start + " - " + end)
}

func joinNonBlank(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
