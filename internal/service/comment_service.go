package service

import (
	"errors"
	"strings"

	"github.com/afrowiki/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrAlreadyLiked    = errors.New("comment is already liked")
	ErrLikeNotFound    = errors.New("comment is not liked")
	ErrNotCommentOwner = errors.New("only the comment author or an admin may delete it")
)

// CommentView is a comment with its like count.
type CommentView struct {
	db.Comment
	LikeCount int64 `json:"likeCount"`
}

// CommentService manages article discussion and likes.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// Create attaches a comment to an article.
func (s *CommentService) Create(articleID, userID uint, content string) (*db.Comment, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrContentRequired
	}

	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	comment := db.Comment{
		ArticleID: articleID,
		UserID:    userID,
		Content:   trimmed,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// List returns an article's comments oldest first with like counts.
func (s *CommentService) List(articleID uint) ([]CommentView, error) {
	var comments []db.Comment
	if err := s.db.Preload("User").
		Where("article_id = ?", articleID).
		Order("created_at asc").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		var likes int64
		if err := s.db.Model(&db.CommentLike{}).
			Where("comment_id = ?", comments[i].ID).
			Count(&likes).Error; err != nil {
			return nil, err
		}
		views = append(views, CommentView{Comment: comments[i], LikeCount: likes})
	}
	return views, nil
}

// Delete removes a comment and its likes. Comment author or admin only.
func (s *CommentService) Delete(commentID, userID uint) error {
	var comment db.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if comment.UserID != user.ID && user.Role != db.RoleAdmin {
		return ErrNotCommentOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("comment_id = ?", commentID).
			Delete(&db.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&db.Comment{}, commentID).Error
	})
}

// Like records one user's like of a comment. Liking twice is a conflict.
func (s *CommentService) Like(commentID, userID uint) error {
	var comment db.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	var existing db.CommentLike
	err := s.db.Where("comment_id = ? AND user_id = ?", commentID, userID).
		First(&existing).Error
	if err == nil {
		return ErrAlreadyLiked
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.db.Create(&db.CommentLike{CommentID: commentID, UserID: userID}).Error
}

// Unlike removes the like.
func (s *CommentService) Unlike(commentID, userID uint) error {
	res := s.db.Unscoped().
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&db.CommentLike{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLikeNotFound
	}
	return nil
}
