package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/TiltedFt/ai-learning-flashcards/model"
)

// TextExtractor yields the plain text of a page range of a stored file.
type TextExtractor interface {
	ExtractPageRange(filePath string, from, to int) (string, error)
}

// TopicSource resolves a topic id to the data needed for generation.
type TopicSource interface {
	ResolveTopic(ctx context.Context, topicID string) (*TopicInfo, error)
}

// GenerationCache memoizes generated payloads by content fingerprint.
type GenerationCache interface {
	Get(ctx context.Context, key string) (*model.GenCache, error)
	PutIfAbsent(ctx context.Context, key, payload string, tokens int) error
}

// QuestionGenerator produces a question set from topic title and text.
type QuestionGenerator interface {
	Generate(ctx context.Context, topicTitle, sourceText string) ([]GeneratedQuestion, int, error)
	Model() string
}

// QuestionPersister reads and writes persisted question sets.
type QuestionPersister interface {
	FindByTopic(ctx context.Context, topicID string) ([]model.Question, error)
	CreateSet(ctx context.Context, chapterID, topicID string, questions []GeneratedQuestion, modelName string) ([]model.Question, error)
}

// TopicInfo carries everything the quiz pipeline needs about a topic:
// its identity, the page range to extract, and the path of the owning
// book's stored file.
type TopicInfo struct {
	ID        string
	Title     string
	ChapterID string
	PageStart *int
	PageEnd   *int
	FilePath  string
}

// QuizService drives the generation pipeline: extract the topic's page
// range, fingerprint it, consult the cache, generate on a miss, and
// persist exactly one question set per topic.
type QuizService struct {
	topics    TopicSource
	extractor TextExtractor
	cache     GenerationCache
	generator QuestionGenerator
	questions QuestionPersister
}

func NewQuizService(topics TopicSource, extractor TextExtractor, cache GenerationCache, generator QuestionGenerator, questions QuestionPersister) *QuizService {
	return &QuizService{
		topics:    topics,
		extractor: extractor,
		cache:     cache,
		generator: generator,
		questions: questions,
	}
}

// EnsureTopicQuestions returns the topic's question set, generating and
// persisting it first if none exists. Repeated calls are idempotent and
// return the same rows. Concurrent callers race on the persistence
// step; the loser re-reads and returns the winner's rows, so no model
// call ever yields two sets for one topic.
func (s *QuizService) EnsureTopicQuestions(ctx context.Context, topicID string) ([]model.Question, error) {
	existing, err := s.questions.FindByTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	topic, err := s.topics.ResolveTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if topic.FilePath == "" {
		return nil, ErrMissingSource
	}

	from := 1
	if topic.PageStart != nil {
		from = *topic.PageStart
	}
	to := from
	if topic.PageEnd != nil {
		to = *topic.PageEnd
	}

	sourceText, err := s.extractor.ExtractPageRange(topic.FilePath, from, to)
	if err != nil {
		return nil, err
	}

	key := Fingerprint(topicID, from, to, sourceText)

	questions, err := s.cachedQuestions(ctx, key)
	if err != nil {
		return nil, err
	}

	if questions == nil {
		generated, tokens, err := s.generator.Generate(ctx, topic.Title, sourceText)
		if err != nil {
			return nil, fmt.Errorf("failed to generate questions: %w", err)
		}
		payload, err := json.Marshal(questionPayload{Questions: generated})
		if err != nil {
			return nil, fmt.Errorf("failed to serialize payload: %w", err)
		}
		if err := s.cache.PutIfAbsent(ctx, key, string(payload), tokens); err != nil {
			return nil, fmt.Errorf("failed to cache payload: %w", err)
		}
		questions = generated
	}

	created, err := s.questions.CreateSet(ctx, topic.ChapterID, topicID, questions, s.generator.Model())
	if err != nil {
		if errors.Is(err, ErrDuplicateGeneration) {
			winner, readErr := s.questions.FindByTopic(ctx, topicID)
			if readErr == nil && len(winner) > 0 {
				return winner, nil
			}
			return nil, err
		}
		return nil, err
	}
	return created, nil
}

// cachedQuestions returns a usable question set from the cache, or nil
// on a miss. Entries with an unknown schema version or an unparseable
// payload count as misses; a fresh generation then proceeds and the
// write-once cache keeps the original entry.
func (s *QuizService) cachedQuestions(ctx context.Context, key string) ([]GeneratedQuestion, error) {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	if entry == nil || entry.SchemaVersion != model.GenCacheSchemaVersion {
		return nil, nil
	}
	var payload questionPayload
	if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil || len(payload.Questions) == 0 {
		return nil, nil
	}
	return payload.Questions, nil
}

// GormTopicSource resolves topics straight from the database, walking
// topic → chapter → book to find the stored file path.
type GormTopicSource struct {
	db *gorm.DB
}

func NewGormTopicSource(db *gorm.DB) *GormTopicSource {
	return &GormTopicSource{db: db}
}

func (s *GormTopicSource) ResolveTopic(ctx context.Context, topicID string) (*TopicInfo, error) {
	var topic model.Topic
	err := s.db.WithContext(ctx).
		Preload("Chapter.Book").
		First(&topic, "id = ?", topicID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTopicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve topic: %w", err)
	}

	return &TopicInfo{
		ID:        topic.ID,
		Title:     topic.Title,
		ChapterID: topic.ChapterID,
		PageStart: topic.PageStart,
		PageEnd:   topic.PageEnd,
		FilePath:  topic.Chapter.Book.FileURL,
	}, nil
}
