package db

import (
	"time"

	"gorm.io/gorm"
)

// Audit target types.
const (
	TargetArticle = "Article"
	TargetReview  = "Review"
	TargetUser    = "User"
)

// AuditLog is the append-only event record behind both the admin history
// view and the watchlist unread computation.
type AuditLog struct {
	gorm.Model
	UserID     uint   `gorm:"not null"`
	Action     string `gorm:"size:64;not null"`
	TargetType string `gorm:"size:32;index:idx_audit_target;not null"`
	TargetID   uint   `gorm:"index:idx_audit_target;not null"`
	Details    string `gorm:"type:text"`
	Timestamp  time.Time `gorm:"index;not null"`
}
