package services

import (
	"crypto/sha1"
	"fmt"
)

// Fingerprint derives the cache key for a generated question set from
// the topic id, the resolved page range and the extracted source text.
// Re-uploading a changed PDF changes the text hash and therefore the
// key, so stale entries are never returned; they are simply orphaned.
func Fingerprint(topicID string, from, to int, sourceText string) string {
	sum := sha1.Sum([]byte(sourceText))
	return fmt.Sprintf("quiz:%s:%d-%d:%x", topicID, from, to, sum)
}
