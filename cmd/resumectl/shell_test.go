package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumeBuilder/internal/ai"
	"resumeBuilder/internal/render"
	"resumeBuilder/internal/resume"
)

type fakeRemote struct {
	docs     map[string]resume.Document
	exported []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: map[string]resume.Document{}}
}

func (f *fakeRemote) Get(_ context.Context, id string) (resume.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return resume.Document{}, errors.New("Resume not found")
	}
	return doc, nil
}

func (f *fakeRemote) Create(_ context.Context, doc resume.Document) (resume.Document, error) {
	doc.ID = "r1"
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *fakeRemote) Update(_ context.Context, id string, doc resume.Document) (resume.Document, error) {
	doc.ID = id
	f.docs[id] = doc
	return doc, nil
}

func (f *fakeRemote) List(context.Context) ([]resume.Document, error) {
	out := make([]resume.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeRemote) Templates(context.Context) ([]render.TemplateInfo, error) {
	return render.NewRegistry().Templates(), nil
}

func (f *fakeRemote) RequestExport(_ context.Context, id, _ string) (string, error) {
	f.exported = append(f.exported, id)
	return "task-1", nil
}

func (f *fakeRemote) DownloadLink(_ context.Context, id string) (string, error) {
	return "https://files.example.com/" + id + ".pdf", nil
}

func (f *fakeRemote) GenerateSummary(context.Context, ai.SummaryRequest) (string, error) {
	return "Seasoned engineer.", nil
}

func (f *fakeRemote) EnhanceContent(_ context.Context, req ai.EnhanceRequest) (string, error) {
	return strings.ToUpper(req.Content), nil
}

func (f *fakeRemote) GenerateJobDescription(context.Context, ai.JobDescriptionRequest) (string, error) {
	return "Built things.", nil
}

func (f *fakeRemote) SuggestSkills(context.Context, ai.SuggestSkillsRequest) ([]resume.Skill, error) {
	return []resume.Skill{{Name: "Go", Level: "Advanced"}}, nil
}

func (f *fakeRemote) MatchJob(context.Context, ai.MatchJobRequest) (ai.MatchResult, error) {
	return ai.MatchResult{Analysis: "Strong match", MatchScore: 85}, nil
}

func runScript(t *testing.T, remote *fakeRemote, script string) string {
	t.Helper()
	dir := t.TempDir()
	var out bytes.Buffer
	sh := newShell(remote, filepath.Join(dir, "draft.json"), &out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(sh.close)

	if err := sh.run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func TestShellEditSaveExport(t *testing.T) {
	dir := t.TempDir()
	info := filepath.Join(dir, "info.json")
	if err := os.WriteFile(info, []byte(`{"fullName":"Ada Lovelace","email":"ada@example.com"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	remote := newFakeRemote()

	out := runScript(t, remote, strings.Join([]string{
		"export",
		"title Engine Notes",
		"load personalInfo " + info,
		"summary gen",
		"skills",
		"save",
		"export",
		"link",
		"quit",
	}, "\n"))

	if !strings.Contains(out, "error: save the resume first") {
		t.Fatalf("export before save should fail, got:\n%s", out)
	}
	saved, ok := remote.docs["r1"]
	if !ok {
		t.Fatalf("resume was not created, output:\n%s", out)
	}
	if saved.Title != "Engine Notes" || saved.PersonalInfo.FullName != "Ada Lovelace" {
		t.Fatalf("unexpected saved doc: %+v", saved)
	}
	if saved.Summary != "Seasoned engineer." || len(saved.Skills) != 1 {
		t.Fatalf("assists were not applied: %+v", saved)
	}
	if len(remote.exported) != 1 || remote.exported[0] != "r1" {
		t.Fatalf("unexpected exports: %v", remote.exported)
	}
	if !strings.Contains(out, "https://files.example.com/r1.pdf") {
		t.Fatalf("missing download link in output:\n%s", out)
	}
}

func TestShellNavigationAndErrors(t *testing.T) {
	out := runScript(t, newFakeRemote(), "step 4\nnext\nbogus\nload hobbies x.json\nsave\n")

	if !strings.Contains(out, "(5/8 Professional Summary)") {
		t.Fatalf("expected step 5 prompt, got:\n%s", out)
	}
	if !strings.Contains(out, `unknown command "bogus"`) {
		t.Fatalf("expected unknown command message, got:\n%s", out)
	}
	if !strings.Contains(out, "Please fill in your full name in the Personal Information section") {
		t.Fatalf("expected validation notice, got:\n%s", out)
	}
}

func TestShellPreviewWritesHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	runScript(t, newFakeRemote(), "title Preview Me\npreview "+path+" paper\n")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read preview: %v", err)
	}
	if !strings.Contains(string(data), "<html") {
		t.Fatalf("preview is not an HTML page: %.80s", data)
	}
}

func TestShellToggleAndLastStepShowPreview(t *testing.T) {
	dir := t.TempDir()
	info := filepath.Join(dir, "info.json")
	if err := os.WriteFile(info, []byte(`{"fullName":"Ada Lovelace","email":"ada@example.com"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out := runScript(t, newFakeRemote(), strings.Join([]string{
		"load personalInfo " + info,
		"template bold",
		"step 8",
		"step 1",
		"toggle",
		"toggle",
	}, "\n"))

	if strings.Count(out, "template bold") != 2 {
		t.Fatalf("expected the outline on step 8 and on toggle, got:\n%s", out)
	}
	if !strings.Contains(out, "Ada Lovelace") {
		t.Fatalf("outline should show the header, got:\n%s", out)
	}
	if !strings.Contains(out, "mode: preview") || !strings.Contains(out, "(preview) > ") || !strings.Contains(out, "mode: editing") {
		t.Fatalf("toggle output missing, got:\n%s", out)
	}
}
