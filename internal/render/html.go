package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
)

const contentTemplate = `{{define "content"}}<main id="resume-content" class="resume resume-{{.TemplateID}}">
{{- range .Sections}}
<section class="section section-{{.Kind}}">
{{- if eq .Layout "header"}}{{with .Header}}
<header class="resume-header">
<h1 class="name">{{.Name}}</h1>
<ul class="contacts">{{range .Contacts}}<li class="contact contact-{{.Kind}}">{{if .Icon}}<span class="icon">{{.Icon}}</span> {{end}}{{if .Href}}<a href="{{.Href}}">{{.Label}}</a>{{else}}{{.Label}}{{end}}</li>{{end}}</ul>
</header>{{end}}
{{- else}}
<h2 class="section-title">{{if .Icon}}<span class="icon">{{.Icon}}</span> {{end}}{{.Title}}</h2>
{{- if eq .Layout "paragraph"}}
<p class="text">{{.Text}}</p>
{{- else if eq .Layout "chips"}}
<ul class="chips">{{range .Chips}}<li class="chip">{{.}}</li>{{end}}</ul>
{{- else}}
<ol class="entries">{{range .Entries}}
<li class="entry">
<div class="entry-head"><span class="entry-title">{{.Title}}</span>{{if .DateRange}}<span class="entry-dates">{{.DateRange}}</span>{{end}}</div>
{{- if .Subtitle}}<div class="entry-subtitle">{{.Subtitle}}</div>{{end}}
{{- if .Meta}}<div class="entry-meta">{{.Meta}}</div>{{end}}
{{- if .Link}}<div class="entry-link"><a href="{{.Link}}">{{.Link}}</a></div>{{end}}
{{- if .Body}}<p class="entry-body">{{.Body}}</p>{{end}}
{{- if .Highlights}}<ul class="highlights">{{range .Highlights}}<li>{{.}}</li>{{end}}</ul>{{end}}
</li>{{end}}
</ol>
{{- end}}
{{- end}}
</section>
{{- end}}
</main>{{end}}`

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body class="target-{{.Doc.Target}}">
<div class="page">
{{template "content" .Doc}}
</div>
</body>
</html>`

var htmlTemplates = template.Must(template.Must(template.New("page").Parse(pageTemplate)).Parse(contentTemplate))

type pageData struct {
	Title string
	CSS   template.CSS
	Doc   VisualDocument
}

// WriteHTML writes a standalone HTML page for the visual document.
// Only the page chrome (CSS, page box) differs between targets; the <main> block is shared.
func WriteHTML(w io.Writer, title string, doc VisualDocument) error {
	data := pageData{
		Title: title,
		CSS:   template.CSS(stylesheet(doc)),
		Doc:   doc,
	}
	if err := htmlTemplates.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// HTML is WriteHTML into a byte slice.
func HTML(title string, doc VisualDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, title, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ContentHTML renders only the shared <main> block.
func ContentHTML(doc VisualDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, "content", doc); err != nil {
		return nil, fmt.Errorf("render content: %w", err)
	}
	return buf.Bytes(), nil
}

func stylesheet(doc VisualDocument) string {
	t := doc.Theme
	var b strings.Builder

	fmt.Fprintf(&b, "*{box-sizing:border-box;margin:0;padding:0}")
	fmt.Fprintf(&b, "body{font-family:%s;color:%s;background:%s;line-height:1.5;font-size:14px}", t.FontFamily, t.Text, t.Background)
	fmt.Fprintf(&b, ".resume-header{text-align:%s;padding:24px;margin-bottom:16px", t.HeaderAlign)
	if t.HeaderFill != "" {
		fmt.Fprintf(&b, ";background:%s", t.HeaderFill)
	}
	if t.HeaderText != "" {
		fmt.Fprintf(&b, ";color:%s", t.HeaderText)
	}
	b.WriteString("}")
	fmt.Fprintf(&b, ".name{font-size:30px;font-weight:700;color:inherit}")
	fmt.Fprintf(&b, ".contacts{list-style:none;display:flex;flex-wrap:wrap;gap:12px;margin-top:8px;font-size:13px}")
	if t.HeaderAlign == "center" {
		b.WriteString(".contacts{justify-content:center}")
	}
	fmt.Fprintf(&b, ".contacts a{color:inherit;text-decoration:none}")
	fmt.Fprintf(&b, ".section{padding:0 24px;margin-bottom:18px;break-inside:avoid}")
	fmt.Fprintf(&b, ".section-title{font-size:16px;font-weight:700;color:%s;border-bottom:2px solid %s;padding-bottom:4px;margin-bottom:10px", t.Accent, t.Accent)
	if t.Uppercase {
		b.WriteString(";letter-spacing:.08em")
	}
	b.WriteString("}")
	fmt.Fprintf(&b, ".entries{list-style:none}.entry{margin-bottom:12px}")
	fmt.Fprintf(&b, ".entry-head{display:flex;justify-content:space-between;font-weight:600}")
	fmt.Fprintf(&b, ".entry-dates,.entry-subtitle,.entry-meta{color:%s;font-size:13px}", t.Muted)
	fmt.Fprintf(&b, ".entry-link a{color:%s}", t.Accent)
	fmt.Fprintf(&b, ".highlights{margin:4px 0 0 18px}")
	fmt.Fprintf(&b, ".chips{list-style:none;display:flex;flex-wrap:wrap;gap:8px}")
	fmt.Fprintf(&b, ".chip{background:%s;border:1px solid %s;border-radius:9999px;padding:2px 10px;font-size:13px}", t.Surface, t.Accent)

	// 只有页面外框随输出介质变化。
	switch doc.Target {
	case TargetPaper:
		p := doc.Page
		fmt.Fprintf(&b, "@page{size:%s;margin:%gmm}", p.Size, p.MarginMM)
		fmt.Fprintf(&b, "html,body{width:%gmm}", p.WidthMM-2*p.MarginMM)
		b.WriteString("body{-webkit-print-color-adjust:exact;print-color-adjust:exact}")
	default:
		fmt.Fprintf(&b, ".page{max-width:%dpx;margin:32px auto;background:%s;box-shadow:0 10px 30px rgba(0,0,0,.12);border-radius:8px;overflow:hidden;padding-bottom:16px}", doc.Page.MaxWidthPx, t.Background)
		b.WriteString("body{background:#e5e7eb}")
	}
	return b.String()
}

// PlainText flattens the visual document into the lines a reader would see, in order.
// The export worker compares it with the text extracted from the printed PDF.
func PlainText(doc VisualDocument) []string {
	var lines []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}
	for _, s := range doc.Sections {
		if s.Header != nil {
			add(s.Header.Name)
			for _, c := range s.Header.Contacts {
				add(c.Label)
			}
			continue
		}
		add(s.Title)
		add(s.Text)
		for _, e := range s.Entries {
			add(e.Title)
			add(e.DateRange)
			add(e.Subtitle)
			add(e.Meta)
			add(e.Link)
			add(e.Body)
			for _, h := range e.Highlights {
				add(h)
			}
		}
		for _, c := range s.Chips {
			add(c)
		}
	}
	return lines
}
