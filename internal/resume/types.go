package resume

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Document 表示一份完整的简历内容及其元数据。
type Document struct {
	ID           string       `json:"id,omitempty"`
	OwnerID      uint         `json:"ownerId,omitempty"`
	Title        string       `json:"title"`
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Summary      string       `json:"summary"`
	Education    []Education  `json:"education" validate:"dive"`
	Experience   []Experience `json:"experience" validate:"dive"`
	Skills       []Skill      `json:"skills" validate:"dive"`
	Projects     []Project    `json:"projects" validate:"dive"`
	MoreDetails  MoreDetails  `json:"moreDetails"`
	TemplateID   string       `json:"templateId"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// PersonalInfo 为简历头部信息，FullName 与 Email 在保存时必填；Email 不校验格式。
type PersonalInfo struct {
	FullName string `json:"fullName" validate:"nonblank"`
	Email    string `json:"email" validate:"nonblank"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
}

// IsBlank reports whether every field is empty after trimming.
func (p PersonalInfo) IsBlank() bool {
	for _, v := range []string{p.FullName, p.Email, p.Phone, p.Address, p.LinkedIn, p.Website} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type Education struct {
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	StartDate    string `json:"startDate" validate:"dateish"`
	EndDate      string `json:"endDate" validate:"dateish"`
	Description  string `json:"description"`
}

// Experience 为一段工作经历。CurrentlyEmployed 为 true 时 EndDate 一律忽略。
type Experience struct {
	ID                string   `json:"id,omitempty"`
	Company           string   `json:"company"`
	Position          string   `json:"position"`
	Location          string   `json:"location"`
	StartDate         string   `json:"startDate" validate:"dateish"`
	EndDate           string   `json:"endDate" validate:"dateish"`
	CurrentlyEmployed bool     `json:"currentlyEmployed"`
	Description       string   `json:"description"`
	Highlights        []string `json:"highlights"`
}

// UnmarshalJSON accepts the legacy "current" flag and "_id" key written by older clients.
func (e *Experience) UnmarshalJSON(data []byte) error {
	type plain Experience
	aux := struct {
		*plain
		Current  *bool  `json:"current"`
		LegacyID string `json:"_id"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Current != nil && *aux.Current {
		e.CurrentlyEmployed = true
	}
	if e.ID == "" {
		e.ID = aux.LegacyID
	}
	return nil
}

type Skill struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name" validate:"nonblank"`
	Level string `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced Expert"`
}

// UnmarshalJSON folds "_id" into ID so that one key survives normalization.
func (s *Skill) UnmarshalJSON(data []byte) error {
	type plain Skill
	aux := struct {
		*plain
		LegacyID string `json:"_id"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = aux.LegacyID
	}
	return nil
}

type Project struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Technologies Technologies `json:"technologies"`
	Link         string       `json:"link"`
	StartDate    string       `json:"startDate" validate:"dateish"`
	EndDate      string       `json:"endDate" validate:"dateish"`
}

// Technologies 可以由前端以数组或逗号分隔字符串提交，统一存为数组。
type Technologies []string

// UnmarshalJSON accepts either a JSON array of strings or a single delimited string.
func (t *Technologies) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("technologies must be a list or a string: %w", err)
	}
	*t = SplitTechnologies(text)
	return nil
}

// String joins the technologies into the single line shown by every template.
func (t Technologies) String() string {
	return strings.Join(t, ", ")
}

// SplitTechnologies splits comma separated text, dropping blank entries.
func SplitTechnologies(text string) Technologies {
	parts := strings.Split(text, ",")
	out := make(Technologies, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type MoreDetails struct {
	Certifications []Certification `json:"certifications"`
	Achievements   []Achievement   `json:"achievements"`
	Hobbies        []Hobby         `json:"hobbies"`
	Languages      []Language      `json:"languages" validate:"dive"`
}

type Certification struct {
	Name string `json:"name"`
}

type Achievement struct {
	Description string `json:"description"`
}

type Hobby struct {
	Name string `json:"name"`
}

type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency" validate:"omitempty,oneof=Basic Intermediate Advanced Native"`
}
