package model

import "time"

// JWTTokenBlacklist stores revoked token IDs (JTI) until they expire
type JWTTokenBlacklist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"` // JWT ID (jti), not the full token
	UserID    uint      `gorm:"index" json:"user_id"`
	Reason    string    `gorm:"type:varchar(50)" json:"reason"` // logout, password_change, admin_revoke
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}
