package db

import "gorm.io/gorm"

// Watchlist subscribes a user to an article. CreatedAt doubles as the read
// watermark: audit entries newer than it count as unread, and mark-read
// simply moves it forward.
type Watchlist struct {
	gorm.Model
	UserID    uint `gorm:"uniqueIndex:idx_watchlist_pair;not null"`
	ArticleID uint `gorm:"uniqueIndex:idx_watchlist_pair;not null"`
	Article   Article
}
