package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"resumeBuilder/internal/builder"
	"resumeBuilder/internal/render"
	"resumeBuilder/internal/resume"
)

// remote 是 shell 需要的服务端能力，由 *client.Session 实现。
type remote interface {
	builder.Store
	builder.Assistant
	List(ctx context.Context) ([]resume.Document, error)
	Delete(ctx context.Context, id string) error
	Templates(ctx context.Context) ([]render.TemplateInfo, error)
	RequestExport(ctx context.Context, id, templateID string) (string, error)
	DownloadLink(ctx context.Context, id string) (string, error)
}

type shell struct {
	remote remote
	cache  builder.DraftCache
	out    io.Writer
	logger *slog.Logger

	wf *builder.Workflow
}

type command func(ctx context.Context, args []string) error

var errQuit = errors.New("quit")

func newShell(r remote, draftPath string, out io.Writer, logger *slog.Logger) *shell {
	return &shell{
		remote: r,
		cache:  builder.NewFileDraftCache(draftPath),
		out:    out,
		logger: logger,
	}
}

func (s *shell) commands() map[string]command {
	return map[string]command{
		"help":      s.help,
		"list":      s.list,
		"templates": s.templates,
		"open":      s.open,
		"show":      s.show,
		"next":      s.next,
		"prev":      s.prev,
		"step":      s.step,
		"title":     s.title,
		"template":  s.template,
		"load":      s.load,
		"summary":   s.summary,
		"job":       s.job,
		"skills":    s.skills,
		"match":     s.match,
		"save":      s.save,
		"preview":   s.preview,
		"toggle":    s.toggle,
		"export":    s.export,
		"link":      s.link,
		"delete":    s.remove,
		"quit":      func(context.Context, []string) error { return errQuit },
		"exit":      func(context.Context, []string) error { return errQuit },
	}
}

// run 读取命令直到 EOF 或 quit；单条命令失败只打印，不中断。
func (s *shell) run(ctx context.Context, in io.Reader) error {
	cmds := s.commands()
	if err := s.open(ctx, nil); err != nil {
		s.printf("%v\n", err)
	}

	scanner := bufio.NewScanner(in)
	for {
		s.prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, ok := cmds[fields[0]]
		if !ok {
			s.printf("unknown command %q, try help\n", fields[0])
			continue
		}
		err := cmd(ctx, fields[1:])
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			s.printf("error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *shell) close() {
	if s.wf != nil {
		s.wf.Close()
	}
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) prompt() {
	if s.wf == nil {
		s.printf("> ")
		return
	}
	st := s.wf.State()
	if st.Notice != nil {
		s.printf("[%s] %s\n", st.Notice.Kind, st.Notice.Text)
	}
	if st.Mode == builder.ModePreview {
		s.printf("(preview) > ")
		return
	}
	s.printf("(%d/%d %s) > ", st.Step, builder.LastStep, st.StepTitle)
}

func (s *shell) help(context.Context, []string) error {
	s.printf(`commands:
  list | templates | open [id] | show | next | prev | step <n>
  title <text> | template <id> | load <section> <file.json>
  summary gen|enhance | job <index> gen|enhance | skills | match <file>
  save | toggle | preview [file] [paper] | export [template] | link | delete <id> | quit
`)
	return nil
}

func (s *shell) list(ctx context.Context, _ []string) error {
	docs, err := s.remote.List(ctx)
	if err != nil {
		return err
	}
	for _, d := range docs {
		s.printf("%s  %-30s  %s\n", d.ID, d.Title, d.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (s *shell) templates(ctx context.Context, _ []string) error {
	infos, err := s.remote.Templates(ctx)
	if err != nil {
		return err
	}
	for _, t := range infos {
		s.printf("%-10s %s\n", t.ID, t.Name)
	}
	return nil
}

// open 切换到另一份简历；不带 id 时继续本地草稿。
func (s *shell) open(ctx context.Context, args []string) error {
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	s.close()
	wf, err := builder.Open(ctx, s.remote, s.remote, s.cache, id, builder.Options{Logger: s.logger})
	s.wf = wf
	return err
}

func (s *shell) show(context.Context, []string) error {
	st := s.wf.State()
	id := st.ID
	if id == "" {
		id = "(unsaved draft)"
	}
	s.printf("resume %s, mode %s\n", id, st.Mode)
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(st.Document)
}

func (s *shell) next(context.Context, []string) error {
	s.wf.Next()
	s.outline()
	return nil
}

func (s *shell) prev(context.Context, []string) error {
	s.wf.Previous()
	s.outline()
	return nil
}

func (s *shell) step(_ context.Context, args []string) error {
	n, err := intArg(args, 0)
	if err != nil {
		return err
	}
	s.wf.GoTo(n)
	s.outline()
	return nil
}

// toggle 在编辑与预览之间切换。
func (s *shell) toggle(context.Context, []string) error {
	s.printf("mode: %s\n", s.wf.TogglePreview())
	s.outline()
	return nil
}

// outline 打印工作流当前持有的预览：模板与各章节。
func (s *shell) outline() {
	v := s.wf.State().Preview
	if v == nil {
		return
	}
	s.printf("template %s\n", v.TemplateID)
	for _, sec := range v.Sections {
		switch {
		case sec.Header != nil:
			s.printf("  %-15s %s\n", sec.Kind, sec.Header.Name)
		case len(sec.Entries) > 0:
			s.printf("  %-15s %d entries\n", sec.Kind, len(sec.Entries))
		case len(sec.Chips) > 0:
			s.printf("  %-15s %s\n", sec.Kind, strings.Join(sec.Chips, ", "))
		default:
			s.printf("  %-15s %s\n", sec.Kind, sec.Text)
		}
	}
}

func (s *shell) title(_ context.Context, args []string) error {
	text := strings.Join(args, " ")
	s.wf.Edit(builder.FieldTitle, func(doc *resume.Document) { doc.Title = text })
	return nil
}

func (s *shell) template(_ context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: template <id>")
	}
	s.wf.SelectTemplate(args[0])
	return nil
}

// load 用 JSON 文件替换一个章节。
func (s *shell) load(_ context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: load <section> <file.json>")
	}
	section, path := args[0], args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var decoded resume.Document
	wrapped, err := json.Marshal(map[string]json.RawMessage{section: data})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(wrapped, &decoded); err != nil {
		return fmt.Errorf("decode %s: %w", section, err)
	}

	var apply func(doc *resume.Document)
	switch section {
	case builder.FieldPersonalInfo:
		apply = func(doc *resume.Document) { doc.PersonalInfo = decoded.PersonalInfo }
	case builder.FieldSummary:
		apply = func(doc *resume.Document) { doc.Summary = decoded.Summary }
	case builder.FieldEducation:
		apply = func(doc *resume.Document) { doc.Education = decoded.Education }
	case builder.FieldExperience:
		apply = func(doc *resume.Document) { doc.Experience = decoded.Experience }
	case builder.FieldSkills:
		apply = func(doc *resume.Document) { doc.Skills = decoded.Skills }
	case builder.FieldProjects:
		apply = func(doc *resume.Document) { doc.Projects = decoded.Projects }
	case builder.FieldMoreDetails:
		apply = func(doc *resume.Document) { doc.MoreDetails = decoded.MoreDetails }
	default:
		return fmt.Errorf("unknown section %q", section)
	}
	s.wf.Edit(section, apply)
	return nil
}

func (s *shell) summary(ctx context.Context, args []string) error {
	switch firstArg(args) {
	case "gen":
		return s.wf.GenerateSummary(ctx)
	case "enhance":
		return s.wf.EnhanceSummary(ctx)
	default:
		return errors.New("usage: summary gen|enhance")
	}
}

func (s *shell) job(ctx context.Context, args []string) error {
	idx, err := intArg(args, 0)
	if err != nil || len(args) < 2 {
		return errors.New("usage: job <index> gen|enhance")
	}
	switch args[1] {
	case "gen":
		return s.wf.GenerateJobDescription(ctx, idx)
	case "enhance":
		return s.wf.EnhanceExperience(ctx, idx)
	default:
		return errors.New("usage: job <index> gen|enhance")
	}
}

func (s *shell) skills(ctx context.Context, _ []string) error {
	added, err := s.wf.SuggestSkills(ctx)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		s.printf("no new skills suggested\n")
	}
	for _, sk := range added {
		s.printf("+ %s (%s)\n", sk.Name, sk.Level)
	}
	return nil
}

func (s *shell) match(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: match <job-description-file>")
	}
	jd, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	result, err := s.wf.MatchJob(ctx, string(jd))
	if err != nil {
		return err
	}
	s.printf("match score: %d\n\n%s\n", result.MatchScore, result.Analysis)
	return nil
}

func (s *shell) save(ctx context.Context, _ []string) error {
	return s.wf.Save(ctx)
}

// preview 把当前草稿写成 HTML 文件，默认 preview.html。
func (s *shell) preview(_ context.Context, args []string) error {
	path := "preview.html"
	target := render.TargetScreen
	for _, a := range args {
		if render.Target(a) == render.TargetPaper {
			target = render.TargetPaper
			continue
		}
		path = a
	}
	page, err := s.wf.PreviewHTML(target)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return err
	}
	s.printf("wrote %s\n", path)
	return nil
}

func (s *shell) export(ctx context.Context, args []string) error {
	id, err := s.savedID()
	if err != nil {
		return err
	}
	taskID, err := s.remote.RequestExport(ctx, id, firstArg(args))
	if err != nil {
		return err
	}
	s.printf("export queued (task %s); run link once it finishes\n", taskID)
	return nil
}

func (s *shell) link(ctx context.Context, _ []string) error {
	id, err := s.savedID()
	if err != nil {
		return err
	}
	url, err := s.remote.DownloadLink(ctx, id)
	if err != nil {
		return err
	}
	s.printf("%s\n", url)
	return nil
}

func (s *shell) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete <id>")
	}
	if err := s.remote.Delete(ctx, args[0]); err != nil {
		return err
	}
	if s.wf != nil && s.wf.State().ID == args[0] {
		return s.open(ctx, nil)
	}
	return nil
}

func (s *shell) savedID() (string, error) {
	id := s.wf.State().ID
	if id == "" {
		return "", errors.New("save the resume first")
	}
	return id, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, errors.New("missing number")
	}
	return strconv.Atoi(args[i])
}
