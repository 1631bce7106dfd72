package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book represents an uploaded PDF book owned by a user
type Book struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	Author    string         `gorm:"type:varchar(200)" json:"author,omitempty"`
	FileURL   string         `gorm:"type:text;not null" json:"file_url"` // Local path to the stored PDF
	FileSize  int64          `gorm:"default:0" json:"file_size"`         // Size in bytes
	PageCount int            `gorm:"default:0" json:"page_count"`

	// Relationships
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Chapters []Chapter `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"chapters,omitempty"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// BookResponse is used for API responses
type BookResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts Book model to BookResponse
func (b *Book) ToResponse() *BookResponse {
	return &BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		PageCount: b.PageCount,
		CreatedAt: b.CreatedAt,
	}
}
