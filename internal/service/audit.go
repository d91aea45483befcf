package service

import (
	"encoding/json"
	"time"

	"github.com/afrowiki/internal/db"
	"gorm.io/gorm"
)

// writeAudit appends one audit log entry. details is JSON-serialized; a nil
// details writes an empty blob. Callers inside a transaction pass their tx
// so the entry commits or rolls back with the rest of the operation.
func writeAudit(tx *gorm.DB, userID uint, action, targetType string, targetID uint, details any) error {
	blob := ""
	if details != nil {
		encoded, err := json.Marshal(details)
		if err != nil {
			return err
		}
		blob = string(encoded)
	}

	return tx.Create(&db.AuditLog{
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    blob,
		Timestamp:  time.Now(),
	}).Error
}

// AuditService exposes the audit trail to the admin surface.
type AuditService struct {
	db *gorm.DB
}

// AuditFilter narrows audit listing.
type AuditFilter struct {
	TargetType string
	TargetID   uint
	Action     string
	Page       int
	PerPage    int
}

// AuditListResult aggregates a page of audit entries.
type AuditListResult struct {
	Entries    []db.AuditLog
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewAuditService creates an AuditService instance.
func NewAuditService(gdb *gorm.DB) *AuditService {
	return &AuditService{db: gdb}
}

// List returns audit entries newest first, optionally filtered.
func (s *AuditService) List(filter AuditFilter) (*AuditListResult, error) {
	result := &AuditListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 50
	}

	query := s.db.Model(&db.AuditLog{})
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != 0 {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage
	if err := query.Order("timestamp desc, id desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Entries).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}

	return result, nil
}
