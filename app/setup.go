package app

import (
	"fmt"
	"os"

	"github.com/TiltedFt/ai-learning-flashcards/api"
	"github.com/TiltedFt/ai-learning-flashcards/config"
	"github.com/TiltedFt/ai-learning-flashcards/database"
	"github.com/TiltedFt/ai-learning-flashcards/router"
	"github.com/TiltedFt/ai-learning-flashcards/services/cron"
)

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Cron jobs: blacklist purge and orphaned-upload sweep
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		cronManager = cron.NewCronManager(store.DB(), getEnv.UPLOAD_DIR)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, store, getEnv)

	return server.Run()
}
