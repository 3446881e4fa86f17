package models

import "time"

// Fallback source kinds. The kind picks the URL remapping dialect when
// proxying.
const (
	SourceTypeHuggingFace = "huggingface"
	SourceTypeKohakuHub   = "kohakuhub"
)

// FallbackSource is an upstream hub consulted when a repository does not
// exist locally. Sources are probed in ascending priority order.
type FallbackSource struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Name       string    `gorm:"not null;size:255;uniqueIndex" json:"name"`
	Endpoint   string    `gorm:"not null;size:1024" json:"endpoint"`
	SourceType string    `gorm:"not null;size:32;default:huggingface" json:"source_type"`
	Token      string    `gorm:"size:1024" json:"-"`
	Priority   int       `gorm:"not null;default:100" json:"priority"`
	// Namespace restricts the source to one namespace when set.
	Namespace string    `gorm:"size:255;index" json:"namespace,omitempty"`
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for FallbackSource.
func (FallbackSource) TableName() string {
	return "fallback_sources"
}
