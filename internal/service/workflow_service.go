package service

import (
	"errors"
	"fmt"

	"github.com/afrowiki/internal/db"
	"gorm.io/gorm"
)

var (
	ErrInvalidStatus      = errors.New("invalid article status")
	ErrAdminRequired      = errors.New("admin access required")
	ErrNotCancellable     = errors.New("article is already under review")
	ErrNotAwaitingConfirm = errors.New("article is not awaiting confirmation")
)

// WorkflowService owns article lifecycle transitions. A single status
// vocabulary is validated at every write site; legacy values are mapped,
// never stored.
type WorkflowService struct {
	db *gorm.DB
}

// NewWorkflowService creates a WorkflowService instance.
func NewWorkflowService(gdb *gorm.DB) *WorkflowService {
	return &WorkflowService{db: gdb}
}

// SetStatus moves an article to any status in the vocabulary. Admin only;
// no transition graph is enforced. isPublished and isArchived are
// recomputed from the new status on every write, a status edit snapshots
// the ledger, and one audit entry captures old and new.
func (s *WorkflowService) SetStatus(articleID, adminID uint, rawStatus, notes string) (*db.Article, error) {
	status, ok := db.NormalizeStatus(rawStatus)
	if !ok {
		return nil, ErrInvalidStatus
	}

	var admin db.User
	if err := s.db.First(&admin, adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if admin.Role != db.RoleAdmin {
		return nil, ErrAdminRequired
	}

	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	oldStatus := article.Status

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Article{}).Where("id = ?", articleID).Updates(map[string]interface{}{
			"status":       status,
			"is_published": status == db.StatusApproved,
			"is_archived":  status == db.StatusArchived,
		}).Error; err != nil {
			return err
		}

		summary := fmt.Sprintf("Status changed to %s", status)
		if _, err := writeVersion(tx, &article, adminID, versionWrite{
			Content:     article.Content,
			EditType:    db.EditTypeStatus,
			EditSummary: summary,
		}); err != nil {
			return err
		}

		return writeAudit(tx, adminID, "article_status_changed", db.TargetArticle, articleID, map[string]any{
			"oldStatus": oldStatus,
			"newStatus": status,
			"notes":     notes,
		})
	})
	if err != nil {
		return nil, err
	}

	article.Status = status
	article.IsPublished = status == db.StatusApproved
	article.IsArchived = status == db.StatusArchived
	return &article, nil
}

// Confirm is the author-facing handoff into review: pending_review moves
// to technical_review.
func (s *WorkflowService) Confirm(articleID, authorID uint) (*db.Article, error) {
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if article.AuthorID != authorID {
		return nil, ErrNotArticleAuthor
	}
	if article.Status != db.StatusPendingReview {
		return nil, ErrNotAwaitingConfirm
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Article{}).Where("id = ?", articleID).
			Update("status", db.StatusTechnicalReview).Error; err != nil {
			return err
		}
		return writeAudit(tx, authorID, "article_confirmed", db.TargetArticle, articleID, map[string]any{
			"oldStatus": article.Status,
			"newStatus": db.StatusTechnicalReview,
		})
	})
	if err != nil {
		return nil, err
	}

	article.Status = db.StatusTechnicalReview
	return &article, nil
}

// Submit moves a draft into pending_review.
func (s *WorkflowService) Submit(articleID, authorID uint) (*db.Article, error) {
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if article.AuthorID != authorID {
		return nil, ErrNotArticleAuthor
	}
	if article.Status != db.StatusDraft && article.Status != db.StatusChangesRequested {
		return nil, ErrInvalidStatus
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Article{}).Where("id = ?", articleID).
			Update("status", db.StatusPendingReview).Error; err != nil {
			return err
		}
		return writeAudit(tx, authorID, "article_submitted", db.TargetArticle, articleID, map[string]any{
			"oldStatus": article.Status,
			"newStatus": db.StatusPendingReview,
		})
	})
	if err != nil {
		return nil, err
	}

	article.Status = db.StatusPendingReview
	return &article, nil
}

// Cancel deletes the article outright. Only the author may cancel, and
// only before review has started; there is no soft delete or undo.
func (s *WorkflowService) Cancel(articleID, authorID uint) error {
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	if article.AuthorID != authorID {
		return ErrNotArticleAuthor
	}
	if article.Status != db.StatusDraft && article.Status != db.StatusPendingReview {
		return ErrNotCancellable
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(&db.Article{}, articleID).Error; err != nil {
			return err
		}
		return writeAudit(tx, authorID, "article_cancelled", db.TargetArticle, articleID, map[string]any{
			"title": article.Title,
		})
	})
}
