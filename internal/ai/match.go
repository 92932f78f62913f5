package ai

import (
	"math"
	"strings"
	"unicode"

	"resumeBuilder/internal/resume"
)

type band struct {
	low, high int
	phrases   []string
}

// 顺序即优先级：先匹配到的档位生效。
var bands = []band{
	{85, 100, []string{"excellent match", "strong match"}},
	{70, 84, []string{"good match"}},
	{50, 69, []string{"average match", "moderate match"}},
}

var fallbackBand = band{low: 20, high: 49}

var stopwords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true, "our": true,
	"are": true, "will": true, "have": true, "has": true, "from": true, "this": true,
	"that": true, "who": true, "your": true, "their": true, "about": true, "into": true,
	"work": true, "team": true, "years": true, "experience": true, "ability": true,
	"strong": true, "including": true, "across": true, "able": true, "must": true,
}

// MatchScore picks the band named by the analysis text and places the score inside it
// by the share of job description keywords that appear in the resume. Equal inputs give equal scores.
func MatchScore(analysis, resumeText, jobDescription string) int {
	b := fallbackBand
	lower := strings.ToLower(analysis)
	for _, candidate := range bands {
		if containsAny(lower, candidate.phrases) {
			b = candidate
			break
		}
	}
	ratio := KeywordOverlap(resumeText, jobDescription)
	return b.low + int(math.Round(ratio*float64(b.high-b.low)))
}

// KeywordOverlap returns the fraction (0..1) of distinct job keywords found in the resume text.
func KeywordOverlap(resumeText, jobDescription string) float64 {
	wanted := keywords(jobDescription)
	if len(wanted) == 0 {
		return 0
	}
	have := keywords(resumeText)
	hits := 0
	for kw := range wanted {
		if have[kw] {
			hits++
		}
	}
	return float64(hits) / float64(len(wanted))
}

func keywords(text string) map[string]bool {
	out := make(map[string]bool)
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	for _, f := range fields {
		if len([]rune(f)) < 3 && f != "go" && f != "c#" && f != "c++" {
			continue
		}
		if stopwords[f] {
			continue
		}
		out[f] = true
	}
	return out
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// ResumeText flattens the searchable text of a document.
func ResumeText(doc resume.Document) string {
	var parts []string
	add := func(values ...string) {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
	}
	add(doc.Title, doc.Summary)
	for _, e := range doc.Experience {
		add(e.Position, e.Company, e.Location, e.Description)
		add(e.Highlights...)
	}
	for _, e := range doc.Education {
		add(e.Degree, e.FieldOfStudy, e.Institution, e.Description)
	}
	for _, s := range doc.Skills {
		add(s.Name)
	}
	for _, p := range doc.Projects {
		add(p.Title, p.Description)
		add(p.Technologies...)
	}
	md := doc.MoreDetails
	for _, c := range md.Certifications {
		add(c.Name)
	}
	for _, a := range md.Achievements {
		add(a.Description)
	}
	for _, l := range md.Languages {
		add(l.Name)
	}
	return strings.Join(parts, "\n")
}
