// Package store persists resume documents per owner on top of gorm.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeBuilder/internal/database"
	"resumeBuilder/internal/resume"
)

var (
	// ErrNotFound 表示简历不存在（包括非法 ID）。
	ErrNotFound = errors.New("resume not found")
	// ErrNotOwner 表示简历存在但不属于当前用户。
	ErrNotOwner = errors.New("user not authorized")
)

// Store is the owner-scoped CRUD surface over resume documents.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New returns a Store backed by db.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock replaces the timestamp source; tests use it to get distinct updatedAt values.
func (s *Store) WithClock(now func() time.Time) *Store {
	return &Store{db: s.db, now: now}
}

func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// ListByOwner returns the owner's resumes, most recently updated first.
func (s *Store) ListByOwner(ctx context.Context, ownerID uint) ([]resume.Document, error) {
	var rows []database.Resume
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}

	docs := make([]resume.Document, 0, len(rows))
	for i := range rows {
		doc, err := toDocument(&rows[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// GetByID loads one resume. A missing row yields ErrNotFound, another owner's row ErrNotOwner.
func (s *Store) GetByID(ctx context.Context, id string, ownerID uint) (resume.Document, error) {
	row, err := s.load(ctx, s.db, id, ownerID)
	if err != nil {
		return resume.Document{}, err
	}
	return toDocument(row)
}

// Create validates doc, assigns a fresh id and timestamps, and persists it for ownerID.
func (s *Store) Create(ctx context.Context, ownerID uint, doc resume.Document) (resume.Document, error) {
	valid, err := resume.ValidateForSave(doc)
	if err != nil {
		return resume.Document{}, err
	}

	now := s.stamp()
	valid.ID = uuid.NewString()
	valid.OwnerID = ownerID
	valid.CreatedAt = now
	valid.UpdatedAt = now

	row, err := toRow(valid)
	if err != nil {
		return resume.Document{}, err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return resume.Document{}, fmt.Errorf("create resume: %w", err)
	}
	return valid, nil
}

// Update replaces every top-level field present in patch and refreshes updatedAt.
// Identity fields (id, ownerId, createdAt, updatedAt) in the patch are ignored.
func (s *Store) Update(ctx context.Context, id string, ownerID uint, patch Patch) (resume.Document, error) {
	var updated resume.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.load(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		current, err := toDocument(row)
		if err != nil {
			return err
		}

		merged, err := patch.Apply(current)
		if err != nil {
			return err
		}
		valid, err := resume.ValidateForSave(merged)
		if err != nil {
			return err
		}
		valid.ID = current.ID
		valid.OwnerID = current.OwnerID
		valid.CreatedAt = current.CreatedAt
		valid.UpdatedAt = s.stamp()

		next, err := toRow(valid)
		if err != nil {
			return err
		}
		// 只写内容列；导出状态由 worker 并发写入，不能用读到的旧值覆盖
		err = tx.Model(&database.Resume{}).Where("id = ?", row.ID).UpdateColumns(map[string]any{
			"title":       next.Title,
			"template_id": next.TemplateID,
			"content":     next.Content,
			"updated_at":  next.UpdatedAt,
		}).Error
		if err != nil {
			return fmt.Errorf("update resume: %w", err)
		}
		updated = valid
		return nil
	})
	if err != nil {
		return resume.Document{}, err
	}
	return updated, nil
}

// Delete removes the resume after the ownership check.
func (s *Store) Delete(ctx context.Context, id string, ownerID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.load(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&database.Resume{}, "id = ?", row.ID).Error; err != nil {
			return fmt.Errorf("delete resume: %w", err)
		}
		return nil
	})
}

// ExportState is the paper export bookkeeping kept next to a resume.
type ExportState struct {
	Status    string
	ObjectKey string
}

// GetExport returns the export state of an owned resume.
func (s *Store) GetExport(ctx context.Context, id string, ownerID uint) (ExportState, error) {
	row, err := s.load(ctx, s.db, id, ownerID)
	if err != nil {
		return ExportState{}, err
	}
	return ExportState{Status: row.ExportStatus, ObjectKey: row.PdfObjectKey}, nil
}

// SetExport records the export status. An empty objectKey keeps the previous one.
// It does not touch updatedAt: exporting is not an edit.
func (s *Store) SetExport(ctx context.Context, id string, status, objectKey string) error {
	updates := map[string]any{"export_status": status}
	if objectKey != "" {
		updates["pdf_object_key"] = objectKey
	}
	res := s.db.WithContext(ctx).Model(&database.Resume{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("set export status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) load(ctx context.Context, db *gorm.DB, id string, ownerID uint) (*database.Resume, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var row database.Resume
	if err := db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load resume: %w", err)
	}
	if row.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return &row, nil
}

func toRow(doc resume.Document) (*database.Resume, error) {
	content, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode resume content: %w", err)
	}
	return &database.Resume{
		ID:         doc.ID,
		OwnerID:    doc.OwnerID,
		Title:      doc.Title,
		TemplateID: doc.TemplateID,
		Content:    datatypes.JSON(content),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// toDocument 以列值为准覆盖 JSON 中的元数据。
func toDocument(row *database.Resume) (resume.Document, error) {
	var doc resume.Document
	if len(row.Content) > 0 {
		if err := json.Unmarshal(row.Content, &doc); err != nil {
			return resume.Document{}, fmt.Errorf("decode resume %s: %w", row.ID, err)
		}
	}
	doc = resume.Normalize(doc)
	doc.ID = row.ID
	doc.OwnerID = row.OwnerID
	doc.Title = row.Title
	doc.TemplateID = resume.ResolveTemplateID(row.TemplateID)
	doc.CreatedAt = row.CreatedAt.UTC()
	doc.UpdatedAt = row.UpdatedAt.UTC()
	return doc, nil
}
