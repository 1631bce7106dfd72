package topic

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/TiltedFt/ai-learning-flashcards/services"
	"github.com/TiltedFt/ai-learning-flashcards/utils"
	"github.com/TiltedFt/ai-learning-flashcards/utils/middleware"
	"github.com/TiltedFt/ai-learning-flashcards/utils/response"
)

// TopicHandler handles topic outline requests
type TopicHandler struct {
	topics *services.TopicService
}

func NewTopicHandler(topics *services.TopicService) *TopicHandler {
	return &TopicHandler{topics: topics}
}

// CreateTopicRequest represents a topic creation request. The page
// range is optional; when omitted the quiz falls back to the start of
// the range at generation time.
type CreateTopicRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=200"`
	PageStart *int   `json:"page_start,omitempty"`
	PageEnd   *int   `json:"page_end,omitempty"`
	Order     int    `json:"order"`
}

// Create adds a topic to a chapter
func (h *TopicHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req CreateTopicRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return response.BadRequest(c, "Title is required")
	}

	topic, err := h.topics.CreateTopic(c.Context(), userID, c.Params("chapter_id"), req.Title, req.PageStart, req.PageEnd, req.Order)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChapterNotFound):
			return response.NotFound(c, "Chapter not found")
		case errors.Is(err, services.ErrInvalidPageRange):
			return response.BadRequest(c, "Page range is invalid: start must be >= 1 and end >= start")
		case errors.Is(err, services.ErrPageRangeOverlap):
			return response.Conflict(c, "Page range overlaps an existing topic in this chapter")
		default:
			return response.InternalServerError(c, "Failed to create topic")
		}
	}
	return response.Created(c, topic)
}

// List returns a chapter's topics in outline order
func (h *TopicHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	topics, err := h.topics.ListTopics(c.Context(), userID, c.Params("chapter_id"))
	if err != nil {
		if errors.Is(err, services.ErrChapterNotFound) {
			return response.NotFound(c, "Chapter not found")
		}
		return response.InternalServerError(c, "Failed to list topics")
	}
	return response.Success(c, topics)
}
