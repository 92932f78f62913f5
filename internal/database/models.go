package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Name         string   `gorm:"size:128"`
	Email        string   `gorm:"uniqueIndex;size:255"`
	PasswordHash string   `gorm:"size:255"`
	Resumes      []Resume `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// Resume 以 JSONB 保存简历正文，列上只保留查询与鉴权需要的字段。
// 时间戳由 store 显式写入，不使用 gorm 的自动时间。
type Resume struct {
	ID           string         `gorm:"primaryKey;size:36"`
	OwnerID      uint           `gorm:"index;not null"`
	Title        string         `gorm:"size:255"`
	TemplateID   string         `gorm:"size:32"`
	Content      datatypes.JSON `gorm:"type:jsonb"`
	PdfObjectKey string         `gorm:"size:512"`
	ExportStatus string         `gorm:"size:32"`
	CreatedAt    time.Time      `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime:false;index"`
}

// Export statuses recorded on Resume.ExportStatus.
const (
	ExportPending   = "pending"
	ExportCompleted = "completed"
	ExportFailed    = "failed"
)
