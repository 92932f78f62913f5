package resume

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var docValidator *validator.Validate

func init() {
	docValidator = validator.New(validator.WithRequiredStructEnabled())
	docValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = docValidator.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = docValidator.RegisterValidation("dateish", func(fl validator.FieldLevel) bool {
		_, ok := CanonicalDate(fl.Field().String())
		return ok
	})
}

// FieldError 描述单个字段的校验失败，Field 使用 JSON 路径（如 experience[0].startDate）。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned by ValidateForSave; callers route each entry to its form section.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// Section returns the top-level document section a field belongs to ("personalInfo", "skills", ...).
func (fe FieldError) Section() string {
	end := strings.IndexAny(fe.Field, ".[")
	if end < 0 {
		return fe.Field
	}
	return fe.Field[:end]
}

// ValidateForSave checks the fields required at persistence time and rewrites every
// date to CanonicalDateLayout (blank dates become ""). The input is normalized first.
func ValidateForSave(doc Document) (Document, error) {
	doc = Normalize(doc)

	var errs ValidationErrors
	if err := docValidator.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Document{}, fmt.Errorf("validate resume: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{
				Field:   fieldPath(fe.Namespace()),
				Message: messageFor(fe),
			})
		}
	}
	if len(errs) > 0 {
		return Document{}, errs
	}

	canonicalizeDates(&doc)
	return doc, nil
}

func canonicalizeDates(doc *Document) {
	canon := func(s string) string {
		c, _ := CanonicalDate(s)
		return c
	}
	for i := range doc.Education {
		doc.Education[i].StartDate = canon(doc.Education[i].StartDate)
		doc.Education[i].EndDate = canon(doc.Education[i].EndDate)
	}
	for i := range doc.Experience {
		doc.Experience[i].StartDate = canon(doc.Experience[i].StartDate)
		doc.Experience[i].EndDate = canon(doc.Experience[i].EndDate)
	}
	for i := range doc.Projects {
		doc.Projects[i].StartDate = canon(doc.Projects[i].StartDate)
		doc.Projects[i].EndDate = canon(doc.Projects[i].EndDate)
	}
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "nonblank", "required":
		return "is required"
	case "dateish":
		return "must be a date"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
