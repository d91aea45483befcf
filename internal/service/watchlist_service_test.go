package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/afrowiki/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupWatchlistServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:watchlist-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func TestWatchlistDuplicateWatchRejected(t *testing.T) {
	gdb := setupWatchlistServiceTestDB(t)
	svc := NewWatchlistService(gdb)
	author := createTestAuthor(t, gdb, "watchauthor")
	watcher := createTestAuthor(t, gdb, "watcher")
	article := createTestArticle(t, gdb, author.ID, "Swahili Coast", "body")

	if _, err := svc.Watch(watcher.ID, article.ID); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if _, err := svc.Watch(watcher.ID, article.ID); !errors.Is(err, ErrAlreadyWatching) {
		t.Fatalf("expected ErrAlreadyWatching, got %v", err)
	}
	if _, err := svc.Watch(watcher.ID, article.ID+999); !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
}

func TestWatchlistUnreadTracksAuditWatermark(t *testing.T) {
	gdb := setupWatchlistServiceTestDB(t)
	svc := NewWatchlistService(gdb)
	author := createTestAuthor(t, gdb, "wmauthor")
	watcher := createTestAuthor(t, gdb, "wmwatcher")
	article := createTestArticle(t, gdb, author.ID, "Nok Culture", "body")

	watch, err := svc.Watch(watcher.ID, article.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	// Push the creation-time audit rows behind the watermark so the
	// list starts clean; the edit below then lands unambiguously after it.
	if err := gdb.Model(&db.AuditLog{}).
		Where("target_type = ? AND target_id = ?", db.TargetArticle, article.ID).
		Update("timestamp", watch.CreatedAt.Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate audit rows: %v", err)
	}

	entries, err := svc.List(watcher.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].HasUnreadChanges {
		t.Fatalf("expected one read entry before any change, got %+v", entries)
	}

	if _, err := NewVersionService(gdb).Create(article.ID, author.ID, VersionInput{Content: "revised"}); err != nil {
		t.Fatalf("create version: %v", err)
	}

	entries, err = svc.List(watcher.ID)
	if err != nil {
		t.Fatalf("list after change: %v", err)
	}
	if !entries[0].HasUnreadChanges {
		t.Fatal("an edit after the watermark must flag the entry unread")
	}
	if entries[0].LastChangeAt == nil {
		t.Fatal("unread entries should carry the latest change time")
	}

	if err := svc.MarkRead(watcher.ID, article.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	entries, err = svc.List(watcher.ID)
	if err != nil {
		t.Fatalf("list after mark read: %v", err)
	}
	if entries[0].HasUnreadChanges {
		t.Fatal("mark read must clear the unread flag")
	}
}

func TestWatchlistUnwatch(t *testing.T) {
	gdb := setupWatchlistServiceTestDB(t)
	svc := NewWatchlistService(gdb)
	author := createTestAuthor(t, gdb, "unwauthor")
	watcher := createTestAuthor(t, gdb, "unwatcher")
	article := createTestArticle(t, gdb, author.ID, "Dogon Astronomy", "body")

	if _, err := svc.Watch(watcher.ID, article.ID); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := svc.Unwatch(watcher.ID, article.ID); err != nil {
		t.Fatalf("unwatch: %v", err)
	}
	if err := svc.Unwatch(watcher.ID, article.ID); !errors.Is(err, ErrWatchNotFound) {
		t.Fatalf("expected ErrWatchNotFound, got %v", err)
	}
	if err := svc.MarkRead(watcher.ID, article.ID); !errors.Is(err, ErrWatchNotFound) {
		t.Fatalf("mark read without a watch should fail, got %v", err)
	}

	entries, err := svc.List(watcher.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty watchlist, got %d entries", len(entries))
	}
}
