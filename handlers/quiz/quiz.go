package quiz

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/TiltedFt/ai-learning-flashcards/model"
	"github.com/TiltedFt/ai-learning-flashcards/services"
	"github.com/TiltedFt/ai-learning-flashcards/utils/middleware"
	"github.com/TiltedFt/ai-learning-flashcards/utils/response"
)

// QuizHandler serves generated quizzes for topics
type QuizHandler struct {
	quiz *services.QuizService
	db   *gorm.DB
}

func NewQuizHandler(quiz *services.QuizService, db *gorm.DB) *QuizHandler {
	return &QuizHandler{quiz: quiz, db: db}
}

// QuizResponse is the payload for a topic quiz
type QuizResponse struct {
	TopicID   string                   `json:"topic_id"`
	Questions []model.QuestionResponse `json:"questions"`
}

// Get returns the quiz for a topic, generating it on first request.
// Subsequent requests return the same stored questions.
func (h *QuizHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	topicID := c.Params("topic_id")
	if err := h.authorizeTopic(c, userID, topicID); err != nil {
		return response.NotFound(c, "Topic not found")
	}

	questions, err := h.quiz.EnsureTopicQuestions(c.Context(), topicID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTopicNotFound):
			return response.NotFound(c, "Topic not found")
		case errors.Is(err, services.ErrMissingSource):
			return response.BadRequest(c, "The book for this topic has no stored file")
		default:
			var extractErr *services.ExtractionError
			if errors.As(err, &extractErr) {
				log.Printf("quiz generation failed for topic %s: %v", topicID, err)
				return response.InternalServerError(c, "Failed to read the book's PDF")
			}
			log.Printf("quiz generation failed for topic %s: %v", topicID, err)
			return response.InternalServerError(c, "Failed to generate quiz")
		}
	}

	return response.Success(c, QuizResponse{
		TopicID:   topicID,
		Questions: model.QuestionsToResponse(questions),
	})
}

// authorizeTopic verifies the topic belongs to one of the user's books
func (h *QuizHandler) authorizeTopic(c *fiber.Ctx, userID uint, topicID string) error {
	var count int64
	err := h.db.WithContext(c.Context()).
		Model(&model.Topic{}).
		Joins("JOIN chapters ON chapters.id = topics.chapter_id").
		Joins("JOIN books ON books.id = chapters.book_id").
		Where("topics.id = ? AND books.user_id = ? AND books.deleted_at IS NULL", topicID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return services.ErrTopicNotFound
	}
	return nil
}
