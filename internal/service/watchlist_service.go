package service

import (
	"errors"
	"time"

	"github.com/afrowiki/internal/db"
	"gorm.io/gorm"
)

var (
	ErrAlreadyWatching = errors.New("article is already on the watchlist")
	ErrWatchNotFound   = errors.New("article is not on the watchlist")
)

// WatchEntry is one watched article with its unread flag.
type WatchEntry struct {
	ArticleID        uint       `json:"articleId"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Status           string     `json:"status"`
	Summary          string     `json:"summary"`
	WatchedAt        time.Time  `json:"watchedAt"`
	HasUnreadChanges bool       `json:"hasUnreadChanges"`
	LastChangeAt     *time.Time `json:"lastChangeAt,omitempty"`
}

// WatchlistService tracks per-user article subscriptions. Unread detection
// compares audit log timestamps against the watch row's CreatedAt
// watermark; mark-read moves the watermark to now, which also means
// re-watching after an unwatch starts with a clean slate.
type WatchlistService struct {
	db *gorm.DB
}

// NewWatchlistService creates a WatchlistService instance.
func NewWatchlistService(gdb *gorm.DB) *WatchlistService {
	return &WatchlistService{db: gdb}
}

// Watch subscribes the user to an article. Watching twice is a conflict.
func (s *WatchlistService) Watch(userID, articleID uint) (*db.Watchlist, error) {
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	var existing db.Watchlist
	err := s.db.Where("user_id = ? AND article_id = ?", userID, articleID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyWatching
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	watch := db.Watchlist{UserID: userID, ArticleID: articleID}
	if err := s.db.Create(&watch).Error; err != nil {
		return nil, err
	}
	return &watch, nil
}

// Unwatch removes the subscription.
func (s *WatchlistService) Unwatch(userID, articleID uint) error {
	res := s.db.Unscoped().
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&db.Watchlist{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWatchNotFound
	}
	return nil
}

// List returns the user's watchlist, newest first, with the unread flag
// computed per entry: unread means at least one article-targeted audit
// entry newer than the watch watermark.
func (s *WatchlistService) List(userID uint) ([]WatchEntry, error) {
	var watches []db.Watchlist
	if err := s.db.Preload("Article").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&watches).Error; err != nil {
		return nil, err
	}

	entries := make([]WatchEntry, 0, len(watches))
	for i := range watches {
		w := &watches[i]
		entry := WatchEntry{
			ArticleID: w.ArticleID,
			Title:     w.Article.Title,
			Slug:      w.Article.Slug,
			Status:    w.Article.Status,
			Summary:   w.Article.Summary,
			WatchedAt: w.CreatedAt,
		}

		var latest db.AuditLog
		err := s.db.Where("target_type = ? AND target_id = ? AND timestamp > ?",
			db.TargetArticle, w.ArticleID, w.CreatedAt).
			Order("timestamp desc").
			First(&latest).Error
		if err == nil {
			entry.HasUnreadChanges = true
			entry.LastChangeAt = &latest.Timestamp
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

// MarkRead advances the watch watermark to now.
func (s *WatchlistService) MarkRead(userID, articleID uint) error {
	res := s.db.Model(&db.Watchlist{}).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Update("created_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWatchNotFound
	}
	return nil
}
