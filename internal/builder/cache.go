package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"resumeBuilder/internal/resume"
)

// FileDraftCache 将草稿保存为本地 JSON 文件。
type FileDraftCache struct {
	path string
}

// NewFileDraftCache returns a cache stored at path.
func NewFileDraftCache(path string) *FileDraftCache {
	return &FileDraftCache{path: path}
}

// Load returns the cached draft. A missing file is not an error; a corrupted one is removed.
func (c *FileDraftCache) Load() (resume.Document, bool, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return resume.Document{}, false, nil
	}
	if err != nil {
		return resume.Document{}, false, fmt.Errorf("read draft: %w", err)
	}

	var doc resume.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		_ = os.Remove(c.path)
		return resume.Document{}, false, nil
	}
	return doc, true, nil
}

// Save writes doc atomically.
func (c *FileDraftCache) Save(doc resume.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace draft: %w", err)
	}
	return nil
}

// Clear removes the cached draft.
func (c *FileDraftCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove draft: %w", err)
	}
	return nil
}
