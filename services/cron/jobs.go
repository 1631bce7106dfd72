package cron

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/TiltedFt/ai-learning-flashcards/model"
	"github.com/TiltedFt/ai-learning-flashcards/utils/auth"
)

// PurgeExpiredBlacklistEntries removes revoked-token rows whose tokens
// have expired anyway. The auth middleware checks expiry itself, so
// this is purely a table-size bound.
func (m *CronManager) PurgeExpiredBlacklistEntries() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	blacklist := auth.NewBlacklistService(m.db)
	if err := blacklist.CleanupExpiredTokens(ctx); err != nil {
		log.Printf("[CRON] Failed to purge token blacklist: %v", err)
		return
	}
	log.Println("[CRON] Token blacklist purged")
}

// SweepOrphanedUploads deletes PDF files in the upload directory that
// no book row references. Files younger than a day are left alone in
// case an upload is mid-flight.
func (m *CronManager) SweepOrphanedUploads() {
	entries, err := os.ReadDir(m.uploadDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[CRON] Failed to read upload directory: %v", err)
		}
		return
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pdf" {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(m.uploadDir, entry.Name())

		// Unscoped: soft-deleted books still point at their file until
		// the row is hard-deleted, and DeleteBook removes files itself.
		var count int64
		err = m.db.Unscoped().
			Model(&model.Book{}).
			Where("file_url = ?", path).
			Count(&count).Error
		if err != nil {
			log.Printf("[CRON] Failed to check references for %s: %v", path, err)
			continue
		}
		if count > 0 {
			continue
		}

		if err := os.Remove(path); err != nil {
			log.Printf("[CRON] Failed to remove orphaned upload %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("[CRON] Removed %d orphaned upload(s)", removed)
	}
}
