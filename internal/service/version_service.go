package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/afrowiki/internal/db"
	"gorm.io/gorm"
)

var (
	ErrVersionNotFound  = errors.New("version not found")
	ErrVersionConflict  = errors.New("article was modified by someone else")
	ErrContentRequired  = errors.New("content is required")
	ErrNotArticleAuthor = errors.New("only the article author or an admin may do this")
)

// VersionService is the version writer: every accepted edit lands here and
// produces an Edit row, a Version snapshot, a forward Diff and the
// denormalized article fields, all inside one transaction.
type VersionService struct {
	db *gorm.DB
}

// VersionInput carries a new content revision.
type VersionInput struct {
	Content string
	Summary string
	// ExpectedVersion, when set, must match the current latest version
	// number or the write is rejected as a conflict.
	ExpectedVersion *int
}

// VersionDetail pairs a version with its edit metadata for listings.
type VersionDetail struct {
	ID        uint      `json:"id"`
	Number    int       `json:"number"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	EditType  string    `json:"editType"`
	Summary   string    `json:"summary"`
	EditorID  uint      `json:"editorId"`
	Editor    string    `json:"editor"`
}

// VersionRef identifies one side of a diff.
type VersionRef struct {
	ID     uint `json:"id"`
	Number int  `json:"number"`
}

// DiffResult is a stored or freshly computed diff between two versions.
type DiffResult struct {
	ID          uint         `json:"id"`
	Changes     []LineChange `json:"changes"`
	FromVersion VersionRef   `json:"fromVersion"`
	ToVersion   VersionRef   `json:"toVersion"`
}

// NewVersionService creates a VersionService instance.
func NewVersionService(gdb *gorm.DB) *VersionService {
	return &VersionService{db: gdb}
}

// versionWrite is the shared core used by content edits, restores, status
// snapshots and branch merges.
type versionWrite struct {
	Content     string
	EditType    string
	EditSummary string
	// Summary, when non-nil, replaces the article's denormalized summary.
	Summary *string
	// Expected, when non-nil, is the optimistic concurrency token.
	Expected *int
}

// writeVersion appends one version to the article's ledger inside tx:
// edit, version number = last + 1, diff from the previous latest when one
// exists, and the article's content/summary/updated_at sync. Either all
// rows persist or none do.
func writeVersion(tx *gorm.DB, article *db.Article, userID uint, w versionWrite) (*db.Version, error) {
	var latest db.Version
	hasPrevious := true
	if err := tx.Where("article_id = ?", article.ID).
		Order("number desc").
		First(&latest).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		hasPrevious = false
	}

	lastNumber := 0
	if hasPrevious {
		lastNumber = latest.Number
	}

	if w.Expected != nil && *w.Expected != lastNumber {
		return nil, ErrVersionConflict
	}

	edit := db.Edit{
		ArticleID: article.ID,
		UserID:    userID,
		Content:   w.Content,
		Type:      w.EditType,
		Summary:   w.EditSummary,
	}
	if err := tx.Create(&edit).Error; err != nil {
		return nil, err
	}

	version := db.Version{
		ArticleID: article.ID,
		Number:    lastNumber + 1,
		Content:   w.Content,
		EditID:    edit.ID,
	}
	if err := tx.Create(&version).Error; err != nil {
		return nil, err
	}

	if hasPrevious {
		changes, err := marshalLineChanges(computeLineChanges(latest.Content, w.Content))
		if err != nil {
			return nil, err
		}
		diff := db.Diff{
			FromVersionID: latest.ID,
			ToVersionID:   version.ID,
			Changes:       changes,
		}
		if err := tx.Create(&diff).Error; err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"content":    w.Content,
		"updated_at": time.Now(),
	}
	if w.Summary != nil {
		updates["summary"] = *w.Summary
	}
	if err := tx.Model(&db.Article{}).
		Where("id = ?", article.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	article.Content = w.Content
	if w.Summary != nil {
		article.Summary = *w.Summary
	}
	return &version, nil
}

// authorizeArticleWrite enforces the author-or-admin precondition shared by
// every version-writing operation.
func authorizeArticleWrite(user *db.User, article *db.Article) error {
	if user.Role == db.RoleAdmin || article.AuthorID == user.ID {
		return nil
	}
	return ErrNotArticleAuthor
}

func (s *VersionService) loadArticleAndUser(articleID, userID uint) (*db.Article, *db.User, error) {
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrArticleNotFound
		}
		return nil, nil, err
	}

	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	return &article, &user, nil
}

// Create appends a new content version to the article.
func (s *VersionService) Create(articleID, userID uint, input VersionInput) (*db.Version, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrContentRequired
	}

	article, user, err := s.loadArticleAndUser(articleID, userID)
	if err != nil {
		return nil, err
	}
	if err := authorizeArticleWrite(user, article); err != nil {
		return nil, err
	}

	var version *db.Version
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		version, txErr = writeVersion(tx, article, userID, versionWrite{
			Content:     input.Content,
			EditType:    db.EditTypeContent,
			EditSummary: input.Summary,
			Expected:    input.ExpectedVersion,
		})
		if txErr != nil {
			return txErr
		}

		return writeAudit(tx, userID, "version_created", db.TargetArticle, article.ID, map[string]any{
			"versionNumber": version.Number,
			"summary":       input.Summary,
		})
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// Restore appends a new version whose content is copied byte for byte from
// an earlier version of the same article.
func (s *VersionService) Restore(articleID, versionID, userID uint, expected *int) (*db.Version, error) {
	article, user, err := s.loadArticleAndUser(articleID, userID)
	if err != nil {
		return nil, err
	}
	if err := authorizeArticleWrite(user, article); err != nil {
		return nil, err
	}

	var source db.Version
	if err := s.db.Where("id = ? AND article_id = ?", versionID, articleID).
		First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}

	var version *db.Version
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		version, txErr = writeVersion(tx, article, userID, versionWrite{
			Content:     source.Content,
			EditType:    db.EditTypeRestore,
			EditSummary: fmt.Sprintf("Restored version %d", source.Number),
			Expected:    expected,
		})
		if txErr != nil {
			return txErr
		}

		return writeAudit(tx, userID, "version_restored", db.TargetArticle, article.ID, map[string]any{
			"restoredNumber": source.Number,
			"newNumber":      version.Number,
		})
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// List returns the article's versions newest first with edit metadata.
// Only the author or an admin may inspect the history.
func (s *VersionService) List(articleID, userID uint) ([]VersionDetail, error) {
	article, user, err := s.loadArticleAndUser(articleID, userID)
	if err != nil {
		return nil, err
	}
	if err := authorizeArticleWrite(user, article); err != nil {
		return nil, err
	}

	var versions []db.Version
	if err := s.db.Preload("Edit").Preload("Edit.User").
		Where("article_id = ?", articleID).
		Order("number desc").
		Find(&versions).Error; err != nil {
		return nil, err
	}

	details := make([]VersionDetail, 0, len(versions))
	for i := range versions {
		v := &versions[i]
		details = append(details, VersionDetail{
			ID:        v.ID,
			Number:    v.Number,
			Content:   v.Content,
			CreatedAt: v.CreatedAt,
			EditType:  v.Edit.Type,
			Summary:   v.Edit.Summary,
			EditorID:  v.Edit.UserID,
			Editor:    v.Edit.User.Name,
		})
	}
	return details, nil
}

// Diff returns the change list between two versions of the article,
// computing and caching it on first request. The cache key is the exact
// ordered pair: asking for (Y,X) after (X,Y) computes a fresh diff.
func (s *VersionService) Diff(articleID, fromID, toID uint) (*DiffResult, error) {
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	var from, to db.Version
	if err := s.db.Where("id = ? AND article_id = ?", fromID, articleID).
		First(&from).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}
	if err := s.db.Where("id = ? AND article_id = ?", toID, articleID).
		First(&to).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}

	var record db.Diff
	err := s.db.Where("from_version_id = ? AND to_version_id = ?", fromID, toID).
		First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		changes, marshalErr := marshalLineChanges(computeLineChanges(from.Content, to.Content))
		if marshalErr != nil {
			return nil, marshalErr
		}
		record = db.Diff{
			FromVersionID: fromID,
			ToVersionID:   toID,
			Changes:       changes,
		}
		if createErr := s.db.Create(&record).Error; createErr != nil {
			// A concurrent request may have inserted the same pair first;
			// the unique index makes our insert fail, so take theirs.
			if err := s.db.Where("from_version_id = ? AND to_version_id = ?", fromID, toID).
				First(&record).Error; err != nil {
				return nil, createErr
			}
		}
	}

	var changes []LineChange
	if err := unmarshalLineChanges(record.Changes, &changes); err != nil {
		return nil, err
	}

	return &DiffResult{
		ID:          record.ID,
		Changes:     changes,
		FromVersion: VersionRef{ID: from.ID, Number: from.Number},
		ToVersion:   VersionRef{ID: to.ID, Number: to.Number},
	}, nil
}
