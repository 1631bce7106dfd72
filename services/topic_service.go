package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/TiltedFt/ai-learning-flashcards/model"
)

// TopicService manages the chapter/topic outline of a book. Page
// ranges are 1-indexed and inclusive; topic ranges within a chapter
// must not overlap each other.
type TopicService struct {
	db *gorm.DB
}

func NewTopicService(db *gorm.DB) *TopicService {
	return &TopicService{db: db}
}

// CreateChapter adds a chapter to a book the user owns.
func (s *TopicService) CreateChapter(ctx context.Context, userID uint, bookID, title string, pageStart, pageEnd, order int) (*model.Chapter, error) {
	if pageStart < 1 || pageEnd < pageStart {
		return nil, ErrInvalidPageRange
	}

	var book model.Book
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", bookID, userID).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	chapter := model.Chapter{
		BookID:    bookID,
		Title:     title,
		PageStart: pageStart,
		PageEnd:   pageEnd,
		Order:     order,
	}
	if err := s.db.WithContext(ctx).Create(&chapter).Error; err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}
	return &chapter, nil
}

// ListChapters returns a book's chapters in outline order.
func (s *TopicService) ListChapters(ctx context.Context, userID uint, bookID string) ([]model.Chapter, error) {
	var book model.Book
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", bookID, userID).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	var chapters []model.Chapter
	err = s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("sort_order ASC, page_start ASC").
		Find(&chapters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// CreateTopic adds a topic to a chapter. The page range is optional
// (a topic without one falls back to the chapter's first page at quiz
// time) but when given it must be well-formed and must not overlap any
// sibling topic's range.
func (s *TopicService) CreateTopic(ctx context.Context, userID uint, chapterID, title string, pageStart, pageEnd *int, order int) (*model.Topic, error) {
	chapter, err := s.getOwnedChapter(ctx, userID, chapterID)
	if err != nil {
		return nil, err
	}

	if pageStart != nil {
		start := *pageStart
		end := start
		if pageEnd != nil {
			end = *pageEnd
		}
		if start < 1 || end < start {
			return nil, ErrInvalidPageRange
		}

		siblings, err := s.listTopics(ctx, chapter.ID)
		if err != nil {
			return nil, err
		}
		for _, sibling := range siblings {
			if sibling.PageStart == nil {
				continue
			}
			sStart := *sibling.PageStart
			sEnd := sStart
			if sibling.PageEnd != nil {
				sEnd = *sibling.PageEnd
			}
			if rangesOverlap(start, end, sStart, sEnd) {
				return nil, ErrPageRangeOverlap
			}
		}
	}

	topic := model.Topic{
		ChapterID: chapter.ID,
		Title:     title,
		PageStart: pageStart,
		PageEnd:   pageEnd,
		Order:     order,
	}
	if err := s.db.WithContext(ctx).Create(&topic).Error; err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}
	return &topic, nil
}

// ListTopics returns a chapter's topics in outline order, scoped to
// the owning user.
func (s *TopicService) ListTopics(ctx context.Context, userID uint, chapterID string) ([]model.Topic, error) {
	chapter, err := s.getOwnedChapter(ctx, userID, chapterID)
	if err != nil {
		return nil, err
	}
	return s.listTopics(ctx, chapter.ID)
}

func (s *TopicService) getOwnedChapter(ctx context.Context, userID uint, chapterID string) (*model.Chapter, error) {
	var chapter model.Chapter
	err := s.db.WithContext(ctx).
		Joins("JOIN books ON books.id = chapters.book_id").
		Where("chapters.id = ? AND books.user_id = ? AND books.deleted_at IS NULL", chapterID, userID).
		First(&chapter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChapterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chapter: %w", err)
	}
	return &chapter, nil
}

func (s *TopicService) listTopics(ctx context.Context, chapterID string) ([]model.Topic, error) {
	var topics []model.Topic
	err := s.db.WithContext(ctx).
		Where("chapter_id = ?", chapterID).
		Order("sort_order ASC, page_start ASC").
		Find(&topics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

// rangesOverlap reports whether two inclusive page ranges intersect.
func rangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && bStart <= aEnd
}
