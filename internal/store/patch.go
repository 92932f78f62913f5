package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"resumeBuilder/internal/resume"
)

// ErrInvalidPatch marks an update body whose fields do not decode into a resume.
var ErrInvalidPatch = errors.New("invalid resume patch")

// Patch holds the top-level fields of an update request, keyed by their JSON names.
type Patch map[string]json.RawMessage

var immutableKeys = map[string]bool{
	"id":        true,
	"_id":       true,
	"ownerId":   true,
	"user":      true,
	"createdAt": true,
	"updatedAt": true,
}

// PatchFromDocument builds a patch that replaces every content field of doc.
func PatchFromDocument(doc resume.Document) (Patch, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	var p Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return p, nil
}

// Apply overlays the patch on current. Absent keys keep their current value;
// a present key replaces the whole field, lists included.
func (p Patch) Apply(current resume.Document) (resume.Document, error) {
	base, err := json.Marshal(current)
	if err != nil {
		return resume.Document{}, fmt.Errorf("encode resume: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return resume.Document{}, fmt.Errorf("decode resume: %w", err)
	}
	for key, value := range p {
		if immutableKeys[key] {
			continue
		}
		fields[key] = value
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return resume.Document{}, fmt.Errorf("encode merged resume: %w", err)
	}
	var out resume.Document
	if err := json.Unmarshal(merged, &out); err != nil {
		return resume.Document{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return out, nil
}
