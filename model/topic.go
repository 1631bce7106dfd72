package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Topic represents a study unit within a chapter, bounded by an inclusive
// 1-indexed page range of the source book. Quizzes are generated per topic.
type Topic struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	ChapterID string         `gorm:"type:uuid;index;not null" json:"chapter_id"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	PageStart *int           `json:"page_start,omitempty"`
	PageEnd   *int           `json:"page_end,omitempty"`
	Order     int            `gorm:"column:sort_order;default:0" json:"order"`

	// Relationships
	Chapter   Chapter    `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"-"`
	Questions []Question `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
