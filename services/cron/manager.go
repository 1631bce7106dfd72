package cron

import (
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	uploadDir string
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, uploadDir string) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:      c,
		db:        db,
		uploadDir: uploadDir,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every hour: purge expired token blacklist entries
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.logJobStart("purge_token_blacklist")
		m.PurgeExpiredBlacklistEntries()
	})
	if err != nil {
		return err
	}

	// 2. Daily at 2 AM: remove upload files no book references
	_, err = m.cron.AddFunc("0 0 2 * * *", func() {
		m.logJobStart("sweep_orphaned_uploads")
		m.SweepOrphanedUploads()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

func (m *CronManager) logJobStart(name string) {
	log.Printf("[CRON] Running job: %s", name)
}
