package handler

import (
	"github.com/afrowiki/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	users       *service.UserService
	articles    *service.ArticleService
	versions    *service.VersionService
	branches    *service.BranchService
	workflow    *service.WorkflowService
	reviews     *service.ReviewService
	watchlists  *service.WatchlistService
	comments    *service.CommentService
	audits      *service.AuditService
	maintenance *service.MaintenanceService
	factCheck   *service.FactCheckService
	references  *service.ReferenceService
	uploadDir   string
	uploadURL   string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, uploadDir, uploadURL, factCheckURL, factCheckKey string) *API {
	factCheck := service.NewFactCheckService(factCheckURL, factCheckKey)

	return &API{
		db:          db,
		users:       service.NewUserService(db),
		articles:    service.NewArticleService(db),
		versions:    service.NewVersionService(db),
		branches:    service.NewBranchService(db),
		workflow:    service.NewWorkflowService(db),
		reviews:     service.NewReviewService(db),
		watchlists:  service.NewWatchlistService(db),
		comments:    service.NewCommentService(db),
		audits:      service.NewAuditService(db),
		maintenance: service.NewMaintenanceService(db, factCheck),
		factCheck:   factCheck,
		references:  service.NewReferenceService(),
		uploadDir:   uploadDir,
		uploadURL:   uploadURL,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// FactCheck exposes the fact check client, mainly for tests.
func (a *API) FactCheck() *service.FactCheckService {
	return a.factCheck
}
