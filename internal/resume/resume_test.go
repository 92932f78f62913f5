package resume

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeFillsEmptySequences(t *testing.T) {
	doc := Normalize(Document{PersonalInfo: PersonalInfo{FullName: "Jane Doe", Email: "jane@x.com"}})

	if doc.Education == nil || doc.Experience == nil || doc.Skills == nil || doc.Projects == nil {
		t.Fatalf("expected non-nil lists, got %+v", doc)
	}
	md := doc.MoreDetails
	if md.Certifications == nil || md.Achievements == nil || md.Hobbies == nil || md.Languages == nil {
		t.Fatalf("expected non-nil more details lists, got %+v", md)
	}
	if doc.Title != DefaultTitle {
		t.Fatalf("title = %q, want %q", doc.Title, DefaultTitle)
	}
	if doc.TemplateID != TemplateModern {
		t.Fatalf("templateId = %q, want modern", doc.TemplateID)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []Document{
		{},
		{
			Title:      "Backend",
			TemplateID: "template1",
			Experience: []Experience{{Company: "Acme", CurrentlyEmployed: true, EndDate: "2020-01-01"}},
			Skills:     []Skill{{Name: "Go"}, {Name: "SQL", Level: "Guru"}},
			Projects:   []Project{{Title: "x", Technologies: Technologies{" Go ", "", "Redis"}}},
			MoreDetails: MoreDetails{
				Languages: []Language{{Name: "French"}},
			},
		},
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("normalize not idempotent:\n once=%+v\ntwice=%+v", once, twice)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	doc := Normalize(Document{
		TemplateID: "does-not-exist",
		Experience: []Experience{{CurrentlyEmployed: true, EndDate: "2019-05-01"}},
		Skills:     []Skill{{Name: "Go"}},
		MoreDetails: MoreDetails{
			Languages: []Language{{Name: "German", Proficiency: "fluent"}},
		},
	})

	if doc.TemplateID != TemplateModern {
		t.Fatalf("unknown template should fall back to modern, got %q", doc.TemplateID)
	}
	if doc.Experience[0].EndDate != "" {
		t.Fatalf("current job must drop end date, got %q", doc.Experience[0].EndDate)
	}
	if doc.Skills[0].Level != LevelIntermediate {
		t.Fatalf("skill level = %q", doc.Skills[0].Level)
	}
	if doc.MoreDetails.Languages[0].Proficiency != ProficiencyIntermediate {
		t.Fatalf("proficiency = %q", doc.MoreDetails.Languages[0].Proficiency)
	}
}

func TestValidateForSaveRequiresNameAndEmail(t *testing.T) {
	_, err := ValidateForSave(Document{PersonalInfo: PersonalInfo{FullName: "  "}})

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field] = fe.Message
	}
	if fields["personalInfo.fullName"] != "is required" {
		t.Fatalf("missing fullName error: %+v", verrs)
	}
	if fields["personalInfo.email"] != "is required" {
		t.Fatalf("missing email error: %+v", verrs)
	}
	for _, fe := range verrs {
		if fe.Section() != "personalInfo" {
			t.Fatalf("unexpected section %q for %+v", fe.Section(), fe)
		}
	}
}

func TestValidateForSaveCanonicalizesDates(t *testing.T) {
	doc, err := ValidateForSave(Document{
		PersonalInfo: PersonalInfo{FullName: "Jane Doe", Email: "jane@x.com"},
		Experience: []Experience{
			{Company: "Acme", StartDate: "2021-03", EndDate: "2023-07-15T00:00:00.000Z"},
			{Company: "Now", StartDate: "Jan 2024", CurrentlyEmployed: true, EndDate: "2020-01-01"},
		},
		Education: []Education{{Institution: "MIT", StartDate: " ", EndDate: ""}},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := doc.Experience[0].StartDate; got != "2021-03-01" {
		t.Fatalf("start = %q", got)
	}
	if got := doc.Experience[0].EndDate; got != "2023-07-15" {
		t.Fatalf("end = %q", got)
	}
	if got := doc.Experience[1].EndDate; got != "" {
		t.Fatalf("current end = %q", got)
	}
	if doc.Education[0].StartDate != "" || doc.Education[0].EndDate != "" {
		t.Fatalf("blank dates should be absent: %+v", doc.Education[0])
	}
}

func TestValidateForSaveReportsFieldScopedErrors(t *testing.T) {
	_, err := ValidateForSave(Document{
		PersonalInfo: PersonalInfo{FullName: "Jane", Email: "not-an-email"},
		Projects:     []Project{{Title: "p", StartDate: "someday"}},
		Skills:       []Skill{{Name: ""}},
	})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	// email 只要求非空
	want := map[string]string{
		"projects[0].startDate": "must be a date",
		"skills[0].name":        "is required",
	}
	got := map[string]string{}
	for _, fe := range verrs {
		got[fe.Field] = fe.Message
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("errors = %v, want %v", got, want)
	}
}

func TestTechnologiesAcceptListOrString(t *testing.T) {
	var fromList, fromText Project
	if err := json.Unmarshal([]byte(`{"technologies":["Go","Redis"]}`), &fromList); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"technologies":"Go, Redis ,"}`), &fromText); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if fromList.Technologies.String() != "Go, Redis" || fromText.Technologies.String() != "Go, Redis" {
		t.Fatalf("got %q and %q", fromList.Technologies.String(), fromText.Technologies.String())
	}
}

func TestLegacyKeysAreFolded(t *testing.T) {
	var exp Experience
	if err := json.Unmarshal([]byte(`{"_id":"abc","company":"Acme","current":true,"endDate":"2020-01-01"}`), &exp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if exp.ID != "abc" || !exp.CurrentlyEmployed || exp.Company != "Acme" {
		t.Fatalf("unexpected experience %+v", exp)
	}

	var skill Skill
	if err := json.Unmarshal([]byte(`{"_id":"s1","name":"Go"}`), &skill); err != nil {
		t.Fatalf("unmarshal skill: %v", err)
	}
	if skill.ID != "s1" || skill.Name != "Go" {
		t.Fatalf("unexpected skill %+v", skill)
	}
}

func TestCanonicalDateKeepsWrittenDay(t *testing.T) {
	cases := map[string]string{
		"2021-03-01T00:00:00+05:00": "2021-03-01",
		"2021-03-01T23:30:00-08:00": "2021-03-01",
		"2021-03-01T10:00:00Z":      "2021-03-01",
	}
	for in, want := range cases {
		got, ok := CanonicalDate(in)
		if !ok || got != want {
			t.Errorf("CanonicalDate(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
}

func TestFormatMonthYear(t *testing.T) {
	cases := map[string]string{
		"2021-03-15":               "Mar 2021",
		"2021-03":                  "Mar 2021",
		"2021-03-15T10:00:00.000Z": "Mar 2021",
		"2021-03-01T00:00:00+05:00": "Mar 2021",
		"2021-03-31T23:30:00-08:00": "Mar 2021",
		"":                         "",
		"sometime":                 "sometime",
	}
	for in, want := range cases {
		if got := FormatMonthYear(in); got != want {
			t.Errorf("FormatMonthYear(%q) = %q, want %q", in, got, want)
		}
	}
}
