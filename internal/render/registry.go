package render

import "resumeBuilder/internal/resume"

// Registry maps template ids to renderers. Lookups never fail: unknown ids get the modern renderer.
type Registry struct {
	renderers map[string]*Renderer
	order     []string
}

// TemplateInfo is the public listing of a registered template.
type TemplateInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Accent string `json:"accent"`
}

// NewRegistry registers the built-in themes.
func NewRegistry() *Registry {
	reg := &Registry{renderers: make(map[string]*Renderer, len(builtinThemes))}
	for _, theme := range builtinThemes {
		reg.renderers[theme.ID] = NewRenderer(theme)
		reg.order = append(reg.order, theme.ID)
	}
	return reg
}

// Lookup returns the renderer for id, falling back to the default template.
func (r *Registry) Lookup(id string) *Renderer {
	if renderer, ok := r.renderers[id]; ok {
		return renderer
	}
	return r.renderers[resume.DefaultTemplateID]
}

// Render renders doc with templateID; an empty templateID uses the document's own choice.
func (r *Registry) Render(doc resume.Document, templateID string, target Target) VisualDocument {
	if templateID == "" {
		templateID = doc.TemplateID
	}
	return r.Lookup(templateID).Render(doc, target)
}

// Templates lists the registered templates in display order.
func (r *Registry) Templates() []TemplateInfo {
	out := make([]TemplateInfo, 0, len(r.order))
	for _, id := range r.order {
		theme := r.renderers[id].Theme()
		out = append(out, TemplateInfo{ID: theme.ID, Name: theme.Name, Accent: theme.Accent})
	}
	return out
}
