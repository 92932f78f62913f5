package resume

// 已注册的模板 ID。未知值一律回落到 modern。
const (
	TemplateClassic    = "classic"
	TemplateModern     = "modern"
	TemplateMinimalist = "minimalist"
	TemplateElegant    = "elegant"
	TemplateCreative   = "creative"
	TemplateBold       = "bold"

	DefaultTemplateID = TemplateModern
	DefaultTitle      = "Untitled Resume"
)

// TemplateIDs lists the registered templates in display order.
var TemplateIDs = []string{
	TemplateClassic,
	TemplateModern,
	TemplateMinimalist,
	TemplateElegant,
	TemplateCreative,
	TemplateBold,
}

// Skill levels and language proficiencies accepted on save.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelExpert       = "Expert"

	ProficiencyBasic        = "Basic"
	ProficiencyIntermediate = "Intermediate"
	ProficiencyAdvanced     = "Advanced"
	ProficiencyNative       = "Native"
)

// IsKnownTemplate reports whether id names a registered template.
func IsKnownTemplate(id string) bool {
	for _, known := range TemplateIDs {
		if id == known {
			return true
		}
	}
	return false
}

// ResolveTemplateID maps unknown or empty ids to the default template.
func ResolveTemplateID(id string) string {
	if IsKnownTemplate(id) {
		return id
	}
	return DefaultTemplateID
}
