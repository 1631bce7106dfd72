package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/TiltedFt/ai-learning-flashcards/utils/middleware"
	"github.com/TiltedFt/ai-learning-flashcards/utils/response"
)

// GetProfile returns the authenticated user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	return response.Success(c, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}
