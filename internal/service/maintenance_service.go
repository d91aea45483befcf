package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/afrowiki/internal/db"
	"gorm.io/gorm"
)

// BatchReport aggregates a sequential bulk operation. Items are processed
// one by one; a failure is recorded and the loop continues. There is no
// resumption marker, so a crash mid-loop leaves earlier items applied.
type BatchReport struct {
	Processed int      `json:"processed"`
	Changed   int      `json:"changed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// MaintenanceService runs admin batch operations: LLM rewrites and
// markdown normalization, each item through the version writer so the
// content/version invariant holds.
type MaintenanceService struct {
	db        *gorm.DB
	factCheck *FactCheckService
}

// NewMaintenanceService creates a MaintenanceService instance.
func NewMaintenanceService(gdb *gorm.DB, factCheck *FactCheckService) *MaintenanceService {
	return &MaintenanceService{db: gdb, factCheck: factCheck}
}

// RewriteBatch asks the LLM collaborator to rewrite each listed article in
// turn, recording a new version per success and an error per failure.
func (s *MaintenanceService) RewriteBatch(ctx context.Context, userID uint, articleIDs []uint) BatchReport {
	report := BatchReport{}
	for _, id := range articleIDs {
		report.Processed++

		var article db.Article
		if err := s.db.First(&article, id).Error; err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("article %d: not found", id))
			continue
		}

		rewritten, err := s.factCheck.Rewrite(ctx, article.Title, article.Content)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("article %d: %v", id, err))
			continue
		}
		if rewritten == article.Content {
			continue
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			_, txErr := writeVersion(tx, &article, userID, versionWrite{
				Content:     rewritten,
				EditType:    db.EditTypeContent,
				EditSummary: "Automated rewrite",
			})
			return txErr
		})
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("article %d: %v", id, err))
			continue
		}
		report.Changed++
	}
	return report
}

var (
	trailingSpaceRE = regexp.MustCompile(`[ \t]+\n`)
	blankRunRE      = regexp.MustCompile(`\n{3,}`)
)

// cleanMarkdown normalizes line endings, strips trailing whitespace and
// collapses runs of blank lines.
func cleanMarkdown(content string) string {
	cleaned := strings.ReplaceAll(content, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")
	cleaned = trailingSpaceRE.ReplaceAllString(cleaned, "\n")
	cleaned = blankRunRE.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimRight(cleaned, "\n ")
}

// CleanMarkdownAll normalizes every article's markdown, one article at a
// time, continuing past individual failures.
func (s *MaintenanceService) CleanMarkdownAll(userID uint) (BatchReport, error) {
	var articles []db.Article
	if err := s.db.Find(&articles).Error; err != nil {
		return BatchReport{}, err
	}

	report := BatchReport{}
	for i := range articles {
		article := articles[i]
		report.Processed++

		cleaned := cleanMarkdown(article.Content)
		if cleaned == article.Content {
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			_, txErr := writeVersion(tx, &article, userID, versionWrite{
				Content:     cleaned,
				EditType:    db.EditTypeContent,
				EditSummary: "Markdown cleanup",
			})
			return txErr
		})
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("article %d: %v", article.ID, err))
			continue
		}
		report.Changed++
	}
	return report, nil
}
