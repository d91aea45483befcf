package db

import "gorm.io/gorm"

// Comment is reader discussion attached to an article.
type Comment struct {
	gorm.Model
	ArticleID uint `gorm:"index;not null"`
	UserID    uint `gorm:"not null"`
	User      User
	Content   string `gorm:"type:text;not null"`
}

// CommentLike records one user's like of one comment.
type CommentLike struct {
	gorm.Model
	CommentID uint `gorm:"uniqueIndex:idx_comment_likes_pair;not null"`
	UserID    uint `gorm:"uniqueIndex:idx_comment_likes_pair;not null"`
}
