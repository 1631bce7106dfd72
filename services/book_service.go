package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TiltedFt/ai-learning-flashcards/model"
)

// BookService owns uploaded books: it writes the PDF bytes to local
// disk, records the page count, and scopes every read to the owning
// user.
type BookService struct {
	db        *gorm.DB
	extractor *PDFExtractor
	uploadDir string
}

func NewBookService(db *gorm.DB, extractor *PDFExtractor, uploadDir string) *BookService {
	return &BookService{db: db, extractor: extractor, uploadDir: uploadDir}
}

// SaveUpload stores the PDF content on disk and creates the book row.
// The stored file name is a fresh UUID, never the client's file name.
// If the file cannot be parsed for a page count the upload is rejected
// and the file removed.
func (s *BookService) SaveUpload(ctx context.Context, userID uint, title, author string, content []byte) (*model.Book, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	filePath := filepath.Join(s.uploadDir, uuid.NewString()+".pdf")
	if err := os.WriteFile(filePath, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	pageCount, err := s.extractor.PageCount(filePath)
	if err != nil {
		if rmErr := os.Remove(filePath); rmErr != nil {
			log.Printf("failed to remove rejected upload %s: %v", filePath, rmErr)
		}
		return nil, err
	}

	book := model.Book{
		UserID:    userID,
		Title:     title,
		Author:    author,
		FileURL:   filePath,
		FileSize:  int64(len(content)),
		PageCount: pageCount,
	}
	if err := s.db.WithContext(ctx).Create(&book).Error; err != nil {
		if rmErr := os.Remove(filePath); rmErr != nil {
			log.Printf("failed to remove orphaned upload %s: %v", filePath, rmErr)
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return &book, nil
}

// ListBooks returns the user's books, newest first.
func (s *BookService) ListBooks(ctx context.Context, userID uint) ([]model.Book, error) {
	var books []model.Book
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// GetBook returns one of the user's books or ErrBookNotFound. Lookups
// never cross user boundaries.
func (s *BookService) GetBook(ctx context.Context, userID uint, bookID string) (*model.Book, error) {
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
	return &book, nil
}

// DeleteBook soft-deletes the book row and removes the stored file.
// Chapters, topics and questions cascade at the database level.
func (s *BookService) DeleteBook(ctx context.Context, userID uint, bookID string) error {
	book, err := s.GetBook(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(book).Error; err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if book.FileURL != "" {
		if err := os.Remove(book.FileURL); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove file for deleted book %s: %v", book.ID, err)
		}
	}
	return nil
}
