package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question represents a generated multiple-choice question for a topic.
// Rows are created in bulk inside one transaction and never updated
// afterwards. The composite unique index on (topic_id, position) is the
// only guard against two concurrent generations persisting for the same
// topic: the loser of the race hits a duplicate-key error on position 0.
type Question struct {
	ID            string                      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time                   `json:"created_at"`
	ChapterID     string                      `gorm:"type:uuid;index;not null" json:"chapter_id"`
	TopicID       string                      `gorm:"type:uuid;not null;uniqueIndex:idx_questions_topic_position" json:"topic_id"`
	Position      int                         `gorm:"not null;uniqueIndex:idx_questions_topic_position" json:"position"`
	Stem          string                      `gorm:"type:text;not null" json:"stem"`
	Options       datatypes.JSONSlice[string] `gorm:"not null" json:"options"`
	CorrectIndex  int                         `gorm:"not null" json:"correct_index"`
	Explanation   *string                     `gorm:"type:text" json:"explanation,omitempty"`
	Provenance    datatypes.JSONMap           `json:"-"` // {source, model} — never exposed via the API
	ModelSnapshot string                      `gorm:"type:varchar(100)" json:"-"`

	// Relationships
	Chapter Chapter `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"-"`
	Topic   Topic   `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"-"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// QuestionResponse is the API projection of a question. Provenance and
// model snapshot stay internal.
type QuestionResponse struct {
	ID           string   `json:"id"`
	Stem         string   `json:"stem"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  *string  `json:"explanation,omitempty"`
}

// ToResponse converts Question model to QuestionResponse
func (q *Question) ToResponse() QuestionResponse {
	return QuestionResponse{
		ID:           q.ID,
		Stem:         q.Stem,
		Options:      []string(q.Options),
		CorrectIndex: q.CorrectIndex,
		Explanation:  q.Explanation,
	}
}

// QuestionsToResponse converts a slice of questions to API projections
func QuestionsToResponse(questions []Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, questions[i].ToResponse())
	}
	return out
}
