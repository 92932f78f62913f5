package resume

import "strings"

// Normalize fills every optional list with an empty slice, applies defaults and
// resolves the template id. The result never carries nil slices, so renderers
// only need to check lengths. Normalize(Normalize(d)) == Normalize(d).
func Normalize(doc Document) Document {
	out := doc

	if strings.TrimSpace(out.Title) == "" {
		out.Title = DefaultTitle
	}
	out.TemplateID = ResolveTemplateID(out.TemplateID)

	out.Education = append(make([]Education, 0, len(doc.Education)), doc.Education...)

	out.Experience = make([]Experience, 0, len(doc.Experience))
	for _, exp := range doc.Experience {
		if exp.CurrentlyEmployed {
			exp.EndDate = ""
		}
		exp.Highlights = append(make([]string, 0, len(exp.Highlights)), exp.Highlights...)
		out.Experience = append(out.Experience, exp)
	}

	out.Skills = make([]Skill, 0, len(doc.Skills))
	for _, skill := range doc.Skills {
		if !isSkillLevel(skill.Level) {
			skill.Level = LevelIntermediate
		}
		out.Skills = append(out.Skills, skill)
	}

	out.Projects = make([]Project, 0, len(doc.Projects))
	for _, p := range doc.Projects {
		techs := make(Technologies, 0, len(p.Technologies))
		for _, tech := range p.Technologies {
			if tech = strings.TrimSpace(tech); tech != "" {
				techs = append(techs, tech)
			}
		}
		p.Technologies = techs
		out.Projects = append(out.Projects, p)
	}

	md := doc.MoreDetails
	out.MoreDetails = MoreDetails{
		Certifications: append(make([]Certification, 0, len(md.Certifications)), md.Certifications...),
		Achievements:   append(make([]Achievement, 0, len(md.Achievements)), md.Achievements...),
		Hobbies:        append(make([]Hobby, 0, len(md.Hobbies)), md.Hobbies...),
		Languages:      make([]Language, 0, len(md.Languages)),
	}
	for _, lang := range md.Languages {
		if !isProficiency(lang.Proficiency) {
			lang.Proficiency = ProficiencyIntermediate
		}
		out.MoreDetails.Languages = append(out.MoreDetails.Languages, lang)
	}

	return out
}

func isSkillLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

func isProficiency(p string) bool {
	switch p {
	case ProficiencyBasic, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyNative:
		return true
	}
	return false
}
