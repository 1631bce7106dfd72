package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chapter represents a page-range-bounded chapter of a book
type Chapter struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	BookID    string         `gorm:"type:uuid;index;not null" json:"book_id"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	PageStart int            `gorm:"not null" json:"page_start"`
	PageEnd   int            `gorm:"not null" json:"page_end"`
	Order     int            `gorm:"column:sort_order;default:0" json:"order"`

	// Relationships
	Book   Book    `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	Topics []Topic `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"topics,omitempty"`
}

func (c *Chapter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
