package model

import "time"

// GenCacheSchemaVersion tags the payload format stored in gen_caches.
// Bump it when the serialized question shape changes; readers treat a
// mismatched version as a cache miss instead of mis-deserializing.
const GenCacheSchemaVersion = 1

// GenCache is the content-addressed memoization table for generated
// question payloads. Keys embed the topic id, page range and a hash of
// the extracted source text, so a changed PDF produces a new entry
// rather than corrupting an old one. Entries are immutable: created once
// on first successful generation, never updated or deleted.
type GenCache struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Key           string    `gorm:"uniqueIndex;not null;type:varchar(255)" json:"key"`
	Payload       string    `gorm:"type:text;not null" json:"payload"` // Serialized {"questions":[...]}
	Tokens        int       `gorm:"default:0" json:"tokens"`           // Model-reported token usage
	SchemaVersion int       `gorm:"default:1" json:"schema_version"`
}
