package services

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/TiltedFt/ai-learning-flashcards/model"
)

// QuestionStore persists and reads generated question sets. Sets are
// written atomically: either every question of a generation lands or
// none do.
type QuestionStore struct {
	db *gorm.DB
}

func NewQuestionStore(db *gorm.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

// FindByTopic returns the stored questions for a topic in their
// original generation order.
func (s *QuestionStore) FindByTopic(ctx context.Context, topicID string) ([]model.Question, error) {
	var questions []model.Question
	err := s.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("created_at ASC, position ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// CreateSet writes a full question set for a topic in one transaction,
// assigning positions 0..n-1. If another request already persisted a
// set for the topic, the unique (topic_id, position) index rejects the
// insert and ErrDuplicateGeneration is returned so the caller can
// re-read the winner's rows.
func (s *QuestionStore) CreateSet(ctx context.Context, chapterID, topicID string, questions []GeneratedQuestion, modelName string) ([]model.Question, error) {
	rows := make([]model.Question, 0, len(questions))
	for i, q := range questions {
		var explanation *string
		if q.Explanation != "" {
			e := q.Explanation
			explanation = &e
		}
		rows = append(rows, model.Question{
			ChapterID:    chapterID,
			TopicID:      topicID,
			Position:     i,
			Stem:         q.Stem,
			Options:      datatypes.NewJSONSlice(q.Options),
			CorrectIndex: clampCorrectIndex(q.CorrectIndex),
			Explanation:  explanation,
			Provenance: datatypes.JSONMap{
				"source": "openai",
				"model":  modelName,
			},
			ModelSnapshot: modelName,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateGeneration
		}
		return nil, err
	}
	return rows, nil
}
