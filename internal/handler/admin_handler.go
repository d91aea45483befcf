package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/afrowiki/internal/db"
	"github.com/afrowiki/internal/service"
	"github.com/gin-gonic/gin"
)

// AdminListUsers returns all accounts.
func (a *API) AdminListUsers(c *gin.Context) {
	users, err := a.users.List()
	if err != nil {
		log.Printf("list users failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list users")
		return
	}

	views := make([]gin.H, 0, len(users))
	for i := range users {
		views = append(views, userView(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

// AdminUpdateUserRole sets a user's role.
func (a *API) AdminUpdateUserRole(c *gin.Context) {
	admin, ok := a.currentUser(c)
	if !ok {
		return
	}

	userID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload struct {
		Role string `json:"role"`
	}
	if !bindJSON(c, &payload, "invalid role payload") {
		return
	}

	user, err := a.users.UpdateRole(admin.ID, userID, payload.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidRole):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAdminRequired):
			respondError(c, http.StatusForbidden, err.Error())
		default:
			log.Printf("update role for user %d failed: %v", userID, err)
			respondError(c, http.StatusInternalServerError, "failed to update role")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

// AdminUpdateStatus moves an article to any status in the vocabulary.
// Legacy status values are accepted and mapped before the write.
func (a *API) AdminUpdateStatus(c *gin.Context) {
	admin, ok := a.currentUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if !bindJSON(c, &payload, "invalid status payload") {
		return
	}
	if payload.Status == "" {
		respondError(c, http.StatusBadRequest, "status is required")
		return
	}

	article, err := a.workflow.SetStatus(id, admin.ID, payload.Status, payload.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidStatus):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAdminRequired):
			respondError(c, http.StatusForbidden, err.Error())
		default:
			log.Printf("update status for article %d failed: %v", id, err)
			respondError(c, http.StatusInternalServerError, "failed to update status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article})
}

// AdminRewriteBatch runs the LLM rewrite over the listed articles,
// continuing past individual failures and reporting the aggregate.
func (a *API) AdminRewriteBatch(c *gin.Context) {
	admin, ok := a.currentUser(c)
	if !ok {
		return
	}

	var payload struct {
		ArticleIDs []uint `json:"articleIds"`
	}
	if !bindJSON(c, &payload, "invalid batch payload") {
		return
	}
	if len(payload.ArticleIDs) == 0 {
		respondError(c, http.StatusBadRequest, "at least one article id is required")
		return
	}

	report := a.maintenance.RewriteBatch(c.Request.Context(), admin.ID, payload.ArticleIDs)
	c.JSON(http.StatusOK, report)
}

// AdminCleanMarkdown normalizes every article's markdown.
func (a *API) AdminCleanMarkdown(c *gin.Context) {
	admin, ok := a.currentUser(c)
	if !ok {
		return
	}

	report, err := a.maintenance.CleanMarkdownAll(admin.ID)
	if err != nil {
		log.Printf("markdown cleanup failed: %v", err)
		respondError(c, http.StatusInternalServerError, "markdown cleanup failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

// AdminListAudit returns the audit trail.
func (a *API) AdminListAudit(c *gin.Context) {
	filter := service.AuditFilter{
		TargetType: c.Query("targetType"),
		Action:     c.Query("action"),
	}
	if targetID, ok := parseUintQuery(c, "targetId"); ok {
		filter.TargetID = targetID
	}
	if page, ok := parseUintQuery(c, "page"); ok {
		filter.Page = int(page)
	}
	if perPage, ok := parseUintQuery(c, "per_page"); ok {
		filter.PerPage = int(perPage)
	}

	result, err := a.audits.List(filter)
	if err != nil {
		log.Printf("list audit failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list audit entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":    result.Entries,
		"total":      result.Total,
		"totalPages": result.TotalPages,
		"page":       result.Page,
		"perPage":    result.PerPage,
	})
}

// AdminListArticles lists articles for moderation, legacy status filters
// included.
func (a *API) AdminListArticles(c *gin.Context) {
	status := c.Query("status")
	if status != "" {
		normalized, ok := db.NormalizeStatus(status)
		if !ok {
			respondError(c, http.StatusBadRequest, "invalid article status")
			return
		}
		status = normalized
	}

	page, _ := parseUintQuery(c, "page")
	perPage, _ := parseUintQuery(c, "per_page")

	result, err := a.articles.List(service.ArticleFilter{
		Search:  c.Query("search"),
		Status:  status,
		Page:    int(page),
		PerPage: int(perPage),
	})
	if err != nil {
		log.Printf("admin list articles failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list articles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":   result.Articles,
		"total":      result.Total,
		"totalPages": result.TotalPages,
		"page":       result.Page,
		"perPage":    result.PerPage,
	})
}
