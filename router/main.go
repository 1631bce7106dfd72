package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/TiltedFt/ai-learning-flashcards/config"
	"github.com/TiltedFt/ai-learning-flashcards/database"
	"github.com/TiltedFt/ai-learning-flashcards/handlers"
	auth_handlers "github.com/TiltedFt/ai-learning-flashcards/handlers/auth"
	book_handlers "github.com/TiltedFt/ai-learning-flashcards/handlers/book"
	chapter_handlers "github.com/TiltedFt/ai-learning-flashcards/handlers/chapter"
	quiz_handlers "github.com/TiltedFt/ai-learning-flashcards/handlers/quiz"
	topic_handlers "github.com/TiltedFt/ai-learning-flashcards/handlers/topic"
	"github.com/TiltedFt/ai-learning-flashcards/services"
	"github.com/TiltedFt/ai-learning-flashcards/utils/auth"
	"github.com/TiltedFt/ai-learning-flashcards/utils/cache"
	"github.com/TiltedFt/ai-learning-flashcards/utils/middleware"
)

func SetupRoutes(app *fiber.App, store *database.GORMStore, getEnv *config.EnviornmentVariable) {
	if getEnv.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "ai-learning-flashcards-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        getEnv.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db := store.DB()

	// Redis backs the login brute force protection. The API still works
	// without it, just unprotected.
	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)

	// Wire the quiz generation pipeline
	extractor := services.NewPDFExtractor()
	bookService := services.NewBookService(db, extractor, getEnv.UPLOAD_DIR)
	topicService := services.NewTopicService(db)
	quizService := services.NewQuizService(
		services.NewGormTopicSource(db),
		extractor,
		services.NewGenCacheStore(db),
		services.NewOpenAIQuestionGenerator(getEnv.OPENAI_API_KEY, getEnv.OPENAI_MODEL),
		services.NewQuestionStore(db),
	)

	bookHandler := book_handlers.NewBookHandler(bookService)
	chapterHandler := chapter_handlers.NewChapterHandler(topicService)
	topicHandler := topic_handlers.NewTopicHandler(topicService)
	quizHandler := quiz_handlers.NewQuizHandler(quizService, db)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    "http://localhost:3000,http://localhost:3001",
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckLockout(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile (protected)
	api.Get("/profile", authMiddleware.Required(), authHandler.GetProfile)

	// Book routes (protected)
	books := api.Group("/books", authMiddleware.Required())
	books.Post("/", bookHandler.Upload)
	books.Get("/", bookHandler.List)
	books.Get("/:book_id", bookHandler.Get)
	books.Delete("/:book_id", bookHandler.Delete)

	// Chapter routes (nested under books)
	chapters := books.Group("/:book_id/chapters")
	chapters.Post("/", chapterHandler.Create)
	chapters.Get("/", chapterHandler.List)

	// Topic routes (nested under chapters)
	topics := api.Group("/chapters/:chapter_id/topics", authMiddleware.Required())
	topics.Post("/", topicHandler.Create)
	topics.Get("/", topicHandler.List)

	// Quiz route: generates on first request, stored thereafter
	api.Get("/topics/:topic_id/quiz", authMiddleware.Required(), quizHandler.Get)
}
