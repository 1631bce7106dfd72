package services

import (
	"errors"
	"fmt"
)

var (
	// ErrTopicNotFound is returned when a quiz is requested for a topic
	// that does not exist or was deleted.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrBookNotFound is returned when a book lookup misses or the book
	// belongs to another user.
	ErrBookNotFound = errors.New("book not found")

	// ErrChapterNotFound is returned when a chapter lookup misses.
	ErrChapterNotFound = errors.New("chapter not found")

	// ErrMissingSource is returned when a topic's book has no stored
	// file, so there is nothing to extract text from.
	ErrMissingSource = errors.New("book has no stored source file")

	// ErrDuplicateGeneration is returned when persisting a question set
	// collides with a set another request already wrote for the topic.
	ErrDuplicateGeneration = errors.New("questions already exist for topic")

	// ErrInvalidPageRange is returned when a chapter or topic page range
	// is malformed (start < 1 or end < start).
	ErrInvalidPageRange = errors.New("invalid page range")

	// ErrPageRangeOverlap is returned when a new topic's page range
	// overlaps a sibling topic in the same chapter.
	ErrPageRangeOverlap = errors.New("page range overlaps an existing topic")
)

// ExtractionError wraps failures to open or parse a source PDF. Callers
// can distinguish it from generation or persistence failures and report
// the offending file.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
