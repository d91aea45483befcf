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

func setupVersionServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:version-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
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

func createTestAuthor(t *testing.T, gdb *gorm.DB, name string) db.User {
	t.Helper()
	user := db.User{Name: name, Email: name + "@example.com", Password: "x"}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestArticle(t *testing.T, gdb *gorm.DB, authorID uint, title, content string) *db.Article {
	t.Helper()
	article, err := NewArticleService(gdb).Create(ArticleInput{
		Title:    title,
		Content:  content,
		AuthorID: authorID,
	})
	if err != nil {
		t.Fatalf("create article: %v", err)
	}
	return article
}

func TestVersionServiceNumbersAreContiguous(t *testing.T) {
	gdb := setupVersionServiceTestDB(t)
	svc := NewVersionService(gdb)
	author := createTestAuthor(t, gdb, "contiguous")
	article := createTestArticle(t, gdb, author.ID, "Timbuktu", "first")

	for i, content := range []string{"second", "third"} {
		v, err := svc.Create(article.ID, author.ID, VersionInput{Content: content, Summary: fmt.Sprintf("edit %d", i)})
		if err != nil {
			t.Fatalf("create version: %v", err)
		}
		if v.Number != i+2 {
			t.Fatalf("expected version number %d, got %d", i+2, v.Number)
		}
	}

	var versions []db.Version
	if err := gdb.Where("article_id = ?", article.ID).Order("number asc").Find(&versions).Error; err != nil {
		t.Fatalf("load versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	for i, v := range versions {
		if v.Number != i+1 {
			t.Fatalf("expected contiguous numbering, got %d at position %d", v.Number, i)
		}
	}

	var edits int64
	if err := gdb.Model(&db.Edit{}).Where("article_id = ?", article.ID).Count(&edits).Error; err != nil {
		t.Fatalf("count edits: %v", err)
	}
	if edits != 3 {
		t.Fatalf("expected one edit per version, got %d edits", edits)
	}

	var stored db.Article
	if err := gdb.First(&stored, article.ID).Error; err != nil {
		t.Fatalf("reload article: %v", err)
	}
	if stored.Content != "third" {
		t.Fatalf("article content should mirror the latest version, got %q", stored.Content)
	}
}

func TestVersionServiceRestoreAppendsSnapshot(t *testing.T) {
	gdb := setupVersionServiceTestDB(t)
	svc := NewVersionService(gdb)
	author := createTestAuthor(t, gdb, "restorer")
	article := createTestArticle(t, gdb, author.ID, "Haitian Revolution", "original text")

	if _, err := svc.Create(article.ID, author.ID, VersionInput{Content: "revised text"}); err != nil {
		t.Fatalf("create second version: %v", err)
	}

	var first db.Version
	if err := gdb.Where("article_id = ? AND number = ?", article.ID, 1).First(&first).Error; err != nil {
		t.Fatalf("load first version: %v", err)
	}

	restored, err := svc.Restore(article.ID, first.ID, author.ID, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Number != 3 {
		t.Fatalf("restore must append, expected version 3, got %d", restored.Number)
	}
	if restored.Content != "original text" {
		t.Fatalf("restored content mismatch: %q", restored.Content)
	}

	var edit db.Edit
	if err := gdb.First(&edit, restored.EditID).Error; err != nil {
		t.Fatalf("load restore edit: %v", err)
	}
	if edit.Type != db.EditTypeRestore {
		t.Fatalf("expected restore edit type, got %q", edit.Type)
	}
	if edit.Summary != "Restored version 1" {
		t.Fatalf("unexpected restore summary: %q", edit.Summary)
	}

	var stored db.Article
	if err := gdb.First(&stored, article.ID).Error; err != nil {
		t.Fatalf("reload article: %v", err)
	}
	if stored.Content != "original text" {
		t.Fatalf("article content should match the restored version, got %q", stored.Content)
	}
}

func TestVersionServiceRestoreRejectsForeignVersion(t *testing.T) {
	gdb := setupVersionServiceTestDB(t)
	svc := NewVersionService(gdb)
	author := createTestAuthor(t, gdb, "owner")
	article := createTestArticle(t, gdb, author.ID, "Great Zimbabwe", "walls")
	other := createTestArticle(t, gdb, author.ID, "Benin Bronzes", "plaques")

	var foreign db.Version
	if err := gdb.Where("article_id = ?", other.ID).First(&foreign).Error; err != nil {
		t.Fatalf("load foreign version: %v", err)
	}

	if _, err := svc.Restore(article.ID, foreign.ID, author.ID, nil); !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound for a version of another article, got %v", err)
	}
}

func TestVersionServiceStaleTokenIsRejected(t *testing.T) {
	gdb := setupVersionServiceTestDB(t)
	svc := NewVersionService(gdb)
	author := createTestAuthor(t, gdb, "optimist")
	article := createTestArticle(t, gdb, author.ID, "Sankore", "v1")

	if _, err := svc.Create(article.ID, author.ID, VersionInput{Content: "v2"}); err != nil {
		t.Fatalf("create second version: %v", err)
	}

	stale := 1
	_, err := svc.Create(article.ID, author.ID, VersionInput{Content: "lost update", ExpectedVersion: &stale})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	var count int64
	if err := gdb.Model(&db.Version{}).Where("article_id = ?", article.ID).Count(&count).Error; err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if count != 2 {
		t.Fatalf("a conflicting write must persist nothing, got %d versions", count)
	}

	current := 2
	v, err := svc.Create(article.ID, author.ID, VersionInput{Content: "v3", ExpectedVersion: &current})
	if err != nil {
		t.Fatalf("create with fresh token: %v", err)
	}
	if v.Number != 3 {
		t.Fatalf("expected version 3, got %d", v.Number)
	}
}

func TestVersionServiceCreateRequiresContent(t *testing.T) {
	gdb := setupVersionServiceTestDB(t)
	svc := NewVersionService(gdb)
	author := createTestAuthor(t, gdb, "empty")
	article := createTestArticle(t, gdb, author.ID, "Mansa Musa", "gold")

	if _, err := svc.Create(article.ID, author.ID, VersionInput{Content: "   "}); !errors.Is(err, ErrContentRequired) {
		t.Fatalf("expected ErrContentRequired, got %v", err)
	}
}

func TestVersionServiceDiffIsCachedPerDirection(t *testing.T) {
	gdb := setupVersionServiceTestDB(t)
	svc := NewVersionService(gdb)
	author := createTestAuthor(t, gdb, "differ")
	article := createTestArticle(t, gdb, author.ID, "Kush", "line one\nline two\n")

	if _, err := svc.Create(article.ID, author.ID, VersionInput{Content: "line one\nline two changed\n"}); err != nil {
		t.Fatalf("create second version: %v", err)
	}

	var v1, v2 db.Version
	if err := gdb.Where("article_id = ? AND number = ?", article.ID, 1).First(&v1).Error; err != nil {
		t.Fatalf("load v1: %v", err)
	}
	if err := gdb.Where("article_id = ? AND number = ?", article.ID, 2).First(&v2).Error; err != nil {
		t.Fatalf("load v2: %v", err)
	}

	forward, err := svc.Diff(article.ID, v1.ID, v2.ID)
	if err != nil {
		t.Fatalf("diff forward: %v", err)
	}
	again, err := svc.Diff(article.ID, v1.ID, v2.ID)
	if err != nil {
		t.Fatalf("diff forward again: %v", err)
	}
	if forward.ID != again.ID {
		t.Fatalf("repeated diff requests must reuse the cached row: %d vs %d", forward.ID, again.ID)
	}

	backward, err := svc.Diff(article.ID, v2.ID, v1.ID)
	if err != nil {
		t.Fatalf("diff backward: %v", err)
	}
	if backward.ID == forward.ID {
		t.Fatal("opposite directions must be cached independently")
	}

	var added, removed int
	for _, c := range forward.Changes {
		switch c.Type {
		case ChangeAdded:
			added++
		case ChangeRemoved:
			removed++
		}
	}
	if added == 0 || removed == 0 {
		t.Fatalf("expected both added and removed lines, got %d added / %d removed", added, removed)
	}
}

func TestVersionServiceDiffSurvivesConcurrentCacheFill(t *testing.T) {
	gdb := setupVersionServiceTestDB(t)
	svc := NewVersionService(gdb)
	author := createTestAuthor(t, gdb, "racer")
	article := createTestArticle(t, gdb, author.ID, "Benin Bronzes", "first\nsecond\n")

	if _, err := svc.Create(article.ID, author.ID, VersionInput{Content: "first\nsecond revised\n"}); err != nil {
		t.Fatalf("create second version: %v", err)
	}

	var v1, v2 db.Version
	if err := gdb.Where("article_id = ? AND number = ?", article.ID, 1).First(&v1).Error; err != nil {
		t.Fatalf("load v1: %v", err)
	}
	if err := gdb.Where("article_id = ? AND number = ?", article.ID, 2).First(&v2).Error; err != nil {
		t.Fatalf("load v2: %v", err)
	}

	// Sneak a rival row in just before the service's insert, the way a
	// concurrent request filling the same cache miss would.
	var rivalID uint
	raced := false
	cbErr := gdb.Callback().Create().Before("gorm:create").Register("diff_cache_rival", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*db.Diff); !ok {
			return
		}
		raced = true
		changes, err := marshalLineChanges(computeLineChanges(v2.Content, v1.Content))
		if err != nil {
			t.Errorf("marshal rival changes: %v", err)
			return
		}
		rival := db.Diff{FromVersionID: v2.ID, ToVersionID: v1.ID, Changes: changes}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			t.Errorf("create rival diff: %v", err)
			return
		}
		rivalID = rival.ID
	})
	if cbErr != nil {
		t.Fatalf("register callback: %v", cbErr)
	}
	defer func() {
		if err := gdb.Callback().Create().Remove("diff_cache_rival"); err != nil {
			t.Fatalf("remove callback: %v", err)
		}
	}()

	result, err := svc.Diff(article.ID, v2.ID, v1.ID)
	if err != nil {
		t.Fatalf("diff after losing the insert race: %v", err)
	}
	if rivalID == 0 {
		t.Fatal("rival row was never inserted")
	}
	if result.ID != rivalID {
		t.Fatalf("losing the race should surface the winner's row: got %d, want %d", result.ID, rivalID)
	}

	var count int64
	if err := gdb.Model(&db.Diff{}).
		Where("from_version_id = ? AND to_version_id = ?", v2.ID, v1.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count cached diffs: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single cached row for the pair, got %d", count)
	}
}

func TestVersionServiceListRequiresAuthorOrAdmin(t *testing.T) {
	gdb := setupVersionServiceTestDB(t)
	svc := NewVersionService(gdb)
	author := createTestAuthor(t, gdb, "histauthor")
	stranger := createTestAuthor(t, gdb, "stranger")
	admin := db.User{Name: "root", Email: "root@example.com", Password: "x", Role: db.RoleAdmin}
	if err := gdb.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}
	article := createTestArticle(t, gdb, author.ID, "Axum", "obelisks")

	if _, err := svc.List(article.ID, stranger.ID); !errors.Is(err, ErrNotArticleAuthor) {
		t.Fatalf("expected ErrNotArticleAuthor for a stranger, got %v", err)
	}

	versions, err := svc.List(article.ID, admin.ID)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("expected 1 version, got %d", len(versions))
	}
	if versions[0].Editor != author.Name {
		t.Fatalf("expected editor %q, got %q", author.Name, versions[0].Editor)
	}
}
