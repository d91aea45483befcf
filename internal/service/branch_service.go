package service

import (
	"errors"
	"fmt"

	"github.com/afrowiki/internal/db"
	"gorm.io/gorm"
)

var (
	ErrBranchNotFound = errors.New("branch not found")
	ErrBranchClosed   = errors.New("branch is not open")
	ErrMergeConflict  = errors.New("merge conflicts must be resolved")
	ErrNameRequired   = errors.New("branch name is required")
)

// MergeConflictError carries the conflicting regions of a failed merge.
type MergeConflictError struct {
	Conflicts []MergeConflict
}

func (e *MergeConflictError) Error() string {
	return ErrMergeConflict.Error()
}

// Unwrap lets errors.Is match ErrMergeConflict.
func (e *MergeConflictError) Unwrap() error {
	return ErrMergeConflict
}

// BranchService manages alternate working copies of an article. A branch
// remembers the version it diverged from, so merging back is a real
// three-way merge against that ancestor rather than an overwrite.
type BranchService struct {
	db *gorm.DB
}

// NewBranchService creates a BranchService instance.
func NewBranchService(gdb *gorm.DB) *BranchService {
	return &BranchService{db: gdb}
}

// Create opens a branch rooted at the article's current latest version.
func (s *BranchService) Create(articleID, userID uint, name string) (*db.Branch, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	var latest db.Version
	if err := s.db.Where("article_id = ?", articleID).
		Order("number desc").
		First(&latest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}

	branch := db.Branch{
		ArticleID:     articleID,
		Name:          name,
		BaseVersionID: latest.ID,
		Content:       latest.Content,
		Status:        db.BranchOpen,
		CreatorID:     userID,
	}
	if err := s.db.Create(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// List returns an article's branches, newest first.
func (s *BranchService) List(articleID uint) ([]db.Branch, error) {
	var branches []db.Branch
	if err := s.db.Where("article_id = ?", articleID).
		Order("created_at desc").
		Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// UpdateContent replaces the branch head text.
func (s *BranchService) UpdateContent(branchID, userID uint, content string) (*db.Branch, error) {
	if content == "" {
		return nil, ErrContentRequired
	}

	var branch db.Branch
	if err := s.db.First(&branch, branchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	if branch.Status != db.BranchOpen {
		return nil, ErrBranchClosed
	}

	if err := s.db.Model(&db.Branch{}).Where("id = ?", branchID).
		Update("content", content).Error; err != nil {
		return nil, err
	}
	branch.Content = content
	return &branch, nil
}

// Merge folds an open branch back into its article through a three-way
// line merge of the branch's base version, the article's current content
// and the branch head. A clean merge goes through the version writer; any
// conflicting region aborts with the conflicts attached and writes nothing.
func (s *BranchService) Merge(branchID, userID uint) (*db.Version, error) {
	var branch db.Branch
	if err := s.db.First(&branch, branchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	if branch.Status != db.BranchOpen {
		return nil, ErrBranchClosed
	}

	var article db.Article
	if err := s.db.First(&article, branch.ArticleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := authorizeArticleWrite(&user, &article); err != nil {
		return nil, err
	}

	var base db.Version
	if err := s.db.First(&base, branch.BaseVersionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}

	merged := mergeThreeWay(base.Content, article.Content, branch.Content)
	if len(merged.Conflicts) > 0 {
		return nil, &MergeConflictError{Conflicts: merged.Conflicts}
	}

	var version *db.Version
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		version, txErr = writeVersion(tx, &article, userID, versionWrite{
			Content:     merged.Content,
			EditType:    db.EditTypeContent,
			EditSummary: fmt.Sprintf("Merged branch %s", branch.Name),
		})
		if txErr != nil {
			return txErr
		}

		if err := tx.Model(&db.Branch{}).Where("id = ?", branchID).
			Update("status", db.BranchMerged).Error; err != nil {
			return err
		}

		return writeAudit(tx, userID, "branch_merged", db.TargetArticle, article.ID, map[string]any{
			"branch":        branch.Name,
			"baseVersionId": branch.BaseVersionID,
			"newNumber":     version.Number,
		})
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}
