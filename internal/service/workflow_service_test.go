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

func setupWorkflowServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:workflow-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
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

func createTestAdmin(t *testing.T, gdb *gorm.DB, name string) db.User {
	t.Helper()
	admin := db.User{Name: name, Email: name + "@example.com", Password: "x", Role: db.RoleAdmin}
	if err := gdb.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return admin
}

func TestWorkflowStatusDrivesPublicationFlags(t *testing.T) {
	gdb := setupWorkflowServiceTestDB(t)
	svc := NewWorkflowService(gdb)
	author := createTestAuthor(t, gdb, "flagauthor")
	admin := createTestAdmin(t, gdb, "flagadmin")

	cases := []struct {
		status    string
		published bool
		archived  bool
	}{
		{db.StatusApproved, true, false},
		{db.StatusArchived, false, true},
		{db.StatusRejected, false, false},
		{db.StatusChangesRequested, false, false},
	}
	for _, tc := range cases {
		article := createTestArticle(t, gdb, author.ID, "Flags "+tc.status, "body")
		updated, err := svc.SetStatus(article.ID, admin.ID, tc.status, "")
		if err != nil {
			t.Fatalf("set status %s: %v", tc.status, err)
		}
		if updated.IsPublished != tc.published || updated.IsArchived != tc.archived {
			t.Fatalf("status %s: expected published=%v archived=%v, got %v/%v",
				tc.status, tc.published, tc.archived, updated.IsPublished, updated.IsArchived)
		}

		var stored db.Article
		if err := gdb.First(&stored, article.ID).Error; err != nil {
			t.Fatalf("reload article: %v", err)
		}
		if stored.IsPublished != tc.published || stored.IsArchived != tc.archived {
			t.Fatalf("status %s: stored flags diverge from returned ones", tc.status)
		}
	}
}

func TestWorkflowSetStatusAcceptsLegacyVocabulary(t *testing.T) {
	gdb := setupWorkflowServiceTestDB(t)
	svc := NewWorkflowService(gdb)
	author := createTestAuthor(t, gdb, "legacyauthor")
	admin := createTestAdmin(t, gdb, "legacyadmin")
	article := createTestArticle(t, gdb, author.ID, "Legacy", "body")

	updated, err := svc.SetStatus(article.ID, admin.ID, "denied", "not good enough")
	if err != nil {
		t.Fatalf("set legacy status: %v", err)
	}
	if updated.Status != db.StatusRejected {
		t.Fatalf("legacy 'denied' should normalize to %q, got %q", db.StatusRejected, updated.Status)
	}

	if _, err := svc.SetStatus(article.ID, admin.ID, "made-up", ""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestWorkflowSetStatusRecordsLedgerEntry(t *testing.T) {
	gdb := setupWorkflowServiceTestDB(t)
	svc := NewWorkflowService(gdb)
	author := createTestAuthor(t, gdb, "ledgerauthor")
	admin := createTestAdmin(t, gdb, "ledgeradmin")
	article := createTestArticle(t, gdb, author.ID, "Ledger", "unchanged body")

	if _, err := svc.SetStatus(article.ID, admin.ID, db.StatusApproved, "looks good"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	var latest db.Version
	if err := gdb.Where("article_id = ?", article.ID).Order("number desc").First(&latest).Error; err != nil {
		t.Fatalf("load latest version: %v", err)
	}
	if latest.Number != 2 {
		t.Fatalf("status change should append a version, expected 2, got %d", latest.Number)
	}
	if latest.Content != "unchanged body" {
		t.Fatalf("status snapshot must keep the content, got %q", latest.Content)
	}

	var edit db.Edit
	if err := gdb.First(&edit, latest.EditID).Error; err != nil {
		t.Fatalf("load edit: %v", err)
	}
	if edit.Type != db.EditTypeStatus {
		t.Fatalf("expected status edit type, got %q", edit.Type)
	}

	var audit db.AuditLog
	if err := gdb.Where("action = ? AND target_id = ?", "article_status_changed", article.ID).
		First(&audit).Error; err != nil {
		t.Fatalf("load audit entry: %v", err)
	}
}

func TestWorkflowSetStatusRequiresAdmin(t *testing.T) {
	gdb := setupWorkflowServiceTestDB(t)
	svc := NewWorkflowService(gdb)
	author := createTestAuthor(t, gdb, "plainauthor")
	article := createTestArticle(t, gdb, author.ID, "No Admin", "body")

	if _, err := svc.SetStatus(article.ID, author.ID, db.StatusApproved, ""); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
}

func TestWorkflowSubmitAndConfirm(t *testing.T) {
	gdb := setupWorkflowServiceTestDB(t)
	svc := NewWorkflowService(gdb)
	author := createTestAuthor(t, gdb, "submitter")
	other := createTestAuthor(t, gdb, "bystander")
	article := createTestArticle(t, gdb, author.ID, "Submission", "body")

	if _, err := svc.Confirm(article.ID, author.ID); !errors.Is(err, ErrNotAwaitingConfirm) {
		t.Fatalf("confirm before submit should fail, got %v", err)
	}

	if _, err := svc.Submit(article.ID, other.ID); !errors.Is(err, ErrNotArticleAuthor) {
		t.Fatalf("only the author may submit, got %v", err)
	}

	submitted, err := svc.Submit(article.ID, author.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != db.StatusPendingReview {
		t.Fatalf("expected pending_review, got %q", submitted.Status)
	}

	if _, err := svc.Submit(article.ID, author.ID); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("double submit should fail, got %v", err)
	}

	confirmed, err := svc.Confirm(article.ID, author.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != db.StatusTechnicalReview {
		t.Fatalf("expected technical_review, got %q", confirmed.Status)
	}
}

func TestWorkflowCancelOnlyBeforeReview(t *testing.T) {
	gdb := setupWorkflowServiceTestDB(t)
	svc := NewWorkflowService(gdb)
	author := createTestAuthor(t, gdb, "canceller")
	admin := createTestAdmin(t, gdb, "canceladmin")

	draft := createTestArticle(t, gdb, author.ID, "Cancellable", "body")
	if err := svc.Cancel(draft.ID, author.ID); err != nil {
		t.Fatalf("cancel draft: %v", err)
	}
	var gone db.Article
	if err := gdb.Unscoped().First(&gone, draft.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("cancelled article should be hard deleted, got %v", err)
	}

	locked := createTestArticle(t, gdb, author.ID, "Locked", "body")
	if _, err := svc.SetStatus(locked.ID, admin.ID, db.StatusTechnicalReview, ""); err != nil {
		t.Fatalf("move to review: %v", err)
	}
	if err := svc.Cancel(locked.ID, author.ID); !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("expected ErrNotCancellable once review started, got %v", err)
	}
}
