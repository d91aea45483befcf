package service

import (
	"errors"

	"github.com/afrowiki/internal/db"
	"gorm.io/gorm"
)

var (
	ErrReviewNotFound         = errors.New("review not found")
	ErrReviewAssigned         = errors.New("review is already assigned")
	ErrReviewNotInProgress    = errors.New("review is not in progress")
	ErrNotReviewAssignee      = errors.New("only the assignee may complete this review")
	ErrInvalidReviewType      = errors.New("invalid review type")
	ErrInsufficientReputation = errors.New("insufficient reviewer reputation")
)

// reviewReputationMinimum gates which review types a user may claim.
var reviewReputationMinimum = map[string]int{
	db.ReviewTechnical: 50,
	db.ReviewEditorial: 30,
	db.ReviewCultural:  40,
	db.ReviewFactual:   35,
	db.ReviewFinal:     100,
}

// reviewReputationAward is the fixed reputation earned for completing a
// review of each type. The delta is always computed here, never supplied
// by the caller.
var reviewReputationAward = map[string]int{
	db.ReviewTechnical: 15,
	db.ReviewEditorial: 10,
	db.ReviewCultural:  12,
	db.ReviewFactual:   10,
	db.ReviewFinal:     25,
}

// ReputationError reports a failed claim with both sides of the comparison.
type ReputationError struct {
	ReviewType string
	Current    int
	Required   int
}

func (e *ReputationError) Error() string {
	return ErrInsufficientReputation.Error()
}

// Unwrap lets errors.Is match ErrInsufficientReputation.
func (e *ReputationError) Unwrap() error {
	return ErrInsufficientReputation
}

// ReviewService assigns moderation work and accrues reviewer reputation.
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService creates a ReviewService instance.
func NewReviewService(gdb *gorm.DB) *ReviewService {
	return &ReviewService{db: gdb}
}

// ReputationMinimum returns the claim threshold for a review type.
func ReputationMinimum(reviewType string) int {
	return reviewReputationMinimum[reviewType]
}

// Open creates one unassigned review per requested type for the article.
func (s *ReviewService) Open(articleID, userID uint, types []string) ([]db.Review, error) {
	for _, t := range types {
		if !db.ValidReviewType(t) {
			return nil, ErrInvalidReviewType
		}
	}

	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	reviews := make([]db.Review, 0, len(types))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, t := range types {
			review := db.Review{
				ArticleID: articleID,
				Type:      t,
				Status:    db.ReviewUnassigned,
			}
			if err := tx.Create(&review).Error; err != nil {
				return err
			}
			reviews = append(reviews, review)
		}
		return writeAudit(tx, userID, "reviews_opened", db.TargetArticle, articleID, map[string]any{
			"types": types,
		})
	})
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListOpen returns unassigned reviews, newest first.
func (s *ReviewService) ListOpen() ([]db.Review, error) {
	var reviews []db.Review
	if err := s.db.Preload("Article").
		Where("status = ?", db.ReviewUnassigned).
		Order("created_at desc").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListForArticle returns every review on an article.
func (s *ReviewService) ListForArticle(articleID uint) ([]db.Review, error) {
	var reviews []db.Review
	if err := s.db.Preload("Assignee").
		Where("article_id = ?", articleID).
		Order("created_at asc").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// Claim lets a qualified user take an unassigned review. The claim fails
// when the review is already taken or when the user's reputation is below
// the type's minimum; in the latter case the error reports both the
// current and the required reputation and the assignee stays unset.
func (s *ReviewService) Claim(reviewID, userID uint) (*db.Review, error) {
	var review db.Review
	if err := s.db.Preload("Article").First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	if review.AssigneeID != nil {
		return nil, ErrReviewAssigned
	}

	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	required := reviewReputationMinimum[review.Type]
	if user.ReviewerReputation < required {
		return nil, &ReputationError{
			ReviewType: review.Type,
			Current:    user.ReviewerReputation,
			Required:   required,
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Review{}).Where("id = ?", reviewID).Updates(map[string]interface{}{
			"assignee_id": userID,
			"status":      db.ReviewInProgress,
		}).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, "review_self_assigned", db.TargetReview, reviewID, map[string]any{
			"reviewType":   review.Type,
			"articleId":    review.ArticleID,
			"articleTitle": review.Article.Title,
		})
	})
	if err != nil {
		return nil, err
	}

	review.AssigneeID = &userID
	review.Status = db.ReviewInProgress
	return &review, nil
}

// Complete finishes an in-progress review. The reviewer's reputation delta
// is the type's fixed award, applied inside the same transaction.
func (s *ReviewService) Complete(reviewID, userID uint, score int, feedback string) (*db.Review, error) {
	var review db.Review
	if err := s.db.First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	if review.Status != db.ReviewInProgress {
		return nil, ErrReviewNotInProgress
	}
	if review.AssigneeID == nil || *review.AssigneeID != userID {
		return nil, ErrNotReviewAssignee
	}

	award := reviewReputationAward[review.Type]

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Review{}).Where("id = ?", reviewID).Updates(map[string]interface{}{
			"status":   db.ReviewCompleted,
			"score":    score,
			"feedback": feedback,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&db.User{}).Where("id = ?", userID).
			Update("reviewer_reputation", gorm.Expr("reviewer_reputation + ?", award)).Error; err != nil {
			return err
		}

		return writeAudit(tx, userID, "review_completed", db.TargetReview, reviewID, map[string]any{
			"reviewType":      review.Type,
			"articleId":       review.ArticleID,
			"score":           score,
			"reputationDelta": award,
		})
	})
	if err != nil {
		return nil, err
	}

	review.Status = db.ReviewCompleted
	review.Score = score
	review.Feedback = feedback
	return &review, nil
}
