package chapter

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/TiltedFt/ai-learning-flashcards/services"
	"github.com/TiltedFt/ai-learning-flashcards/utils"
	"github.com/TiltedFt/ai-learning-flashcards/utils/middleware"
	"github.com/TiltedFt/ai-learning-flashcards/utils/response"
)

// ChapterHandler handles chapter outline requests
type ChapterHandler struct {
	topics *services.TopicService
}

func NewChapterHandler(topics *services.TopicService) *ChapterHandler {
	return &ChapterHandler{topics: topics}
}

// CreateChapterRequest represents a chapter creation request
type CreateChapterRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=200"`
	PageStart int    `json:"page_start" validate:"required,min=1"`
	PageEnd   int    `json:"page_end" validate:"required,min=1"`
	Order     int    `json:"order"`
}

// Create adds a chapter to a book
func (h *ChapterHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateChapterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return response.BadRequest(c, "Title is required")
	}

	chapter, err := h.topics.CreateChapter(c.Context(), userID, c.Params("book_id"), req.Title, req.PageStart, req.PageEnd, req.Order)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrInvalidPageRange):
			return response.BadRequest(c, "Page range is invalid: start must be >= 1 and end >= start")
		default:
			return response.InternalServerError(c, "Failed to create chapter")
		}
	}
	return response.Created(c, chapter)
}

// List returns a book's chapters in outline order
func (h *ChapterHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	chapters, err := h.topics.ListChapters(c.Context(), userID, c.Params("book_id"))
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to list chapters")
	}
	return response.Success(c, chapters)
}
