package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/afrowiki/internal/db"
	"github.com/afrowiki/internal/service"
	"github.com/gin-gonic/gin"
)

// ListArticles returns a filtered, paginated article listing.
func (a *API) ListArticles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	filter := service.ArticleFilter{
		Search:  c.Query("search"),
		Status:  c.Query("status"),
		Page:    page,
		PerPage: perPage,
	}
	if raw := c.Query("categories"); raw != "" {
		filter.CategoryNames = splitQueryList(raw)
	}
	if raw := c.Query("tags"); raw != "" {
		filter.TagNames = splitQueryList(raw)
	}
	if authorID, ok := parseUintQuery(c, "author"); ok {
		filter.AuthorID = authorID
	}

	result, err := a.articles.List(filter)
	if err != nil {
		log.Printf("list articles failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list articles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":       result.Articles,
		"total":          result.Total,
		"publishedCount": result.PublishedCount,
		"draftCount":     result.DraftCount,
		"totalPages":     result.TotalPages,
		"page":           result.Page,
		"perPage":        result.PerPage,
	})
}

// CreateArticle creates an article with its first version.
func (a *API) CreateArticle(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	var payload struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		Summary     string `json:"summary"`
		CategoryIDs []uint `json:"categoryIds"`
		TagIDs      []uint `json:"tagIds"`
	}
	if !bindJSON(c, &payload, "invalid article payload") {
		return
	}

	article, err := a.articles.Create(service.ArticleInput{
		Title:       payload.Title,
		Content:     payload.Content,
		Summary:     payload.Summary,
		CategoryIDs: payload.CategoryIDs,
		TagIDs:      payload.TagIDs,
		AuthorID:    user.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTitleRequired),
			errors.Is(err, service.ErrContentRequired),
			errors.Is(err, service.ErrCategoryNotFound),
			errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("create article failed: %v", err)
			respondError(c, http.StatusInternalServerError, "failed to create article")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"article": article})
}

// GetArticle returns one article by id or slug.
func (a *API) GetArticle(c *gin.Context) {
	idOrSlug := c.Param("id")

	if id, err := strconv.ParseUint(idOrSlug, 10, 32); err == nil {
		article, err := a.articles.Get(uint(id))
		if err != nil {
			a.respondArticleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"article": article})
		return
	}

	article, err := a.articles.GetBySlug(idOrSlug)
	if err != nil {
		a.respondArticleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// GetArticleHTML returns the sanitized rendered HTML of an article.
func (a *API) GetArticleHTML(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	article, err := a.articles.Get(id)
	if err != nil {
		a.respondArticleError(c, err)
		return
	}

	rendered, err := service.RenderHTML(article.Content)
	if err != nil {
		log.Printf("render article %d failed: %v", id, err)
		respondError(c, http.StatusInternalServerError, "failed to render article")
		return
	}

	c.JSON(http.StatusOK, gin.H{"html": rendered})
}

// UpdateArticle patches non-content fields.
func (a *API) UpdateArticle(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload struct {
		Title       *string `json:"title"`
		Summary     *string `json:"summary"`
		CategoryIDs []uint  `json:"categoryIds"`
		TagIDs      []uint  `json:"tagIds"`
	}
	if !bindJSON(c, &payload, "invalid article payload") {
		return
	}

	article, err := a.articles.UpdateFields(id, user.ID, payload.Title, payload.Summary, payload.CategoryIDs, payload.TagIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotArticleAuthor):
			respondError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrTitleRequired),
			errors.Is(err, service.ErrCategoryNotFound),
			errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("update article %d failed: %v", id, err)
			respondError(c, http.StatusInternalServerError, "failed to update article")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article})
}

// ViewArticle bumps the view counter.
func (a *API) ViewArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.articles.IncrementViews(id); err != nil {
		a.respondArticleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "view recorded"})
}

// LikeArticle bumps the like counter.
func (a *API) LikeArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.articles.IncrementLikes(id); err != nil {
		a.respondArticleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "like recorded"})
}

// RelatedArticles returns published articles sharing a category or tag.
func (a *API) RelatedArticles(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	related, err := a.articles.Related(id, limit)
	if err != nil {
		a.respondArticleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": related})
}

// RandomArticle returns one random published article.
func (a *API) RandomArticle(c *gin.Context) {
	article, err := a.articles.Random()
	if err != nil {
		a.respondArticleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// SubmitArticle moves a draft into pending review.
func (a *API) SubmitArticle(c *gin.Context) {
	a.workflowTransition(c, a.workflow.Submit)
}

// ConfirmArticle is the author's handoff from pending review into review.
func (a *API) ConfirmArticle(c *gin.Context) {
	a.workflowTransition(c, a.workflow.Confirm)
}

// CancelArticle deletes an article that has not entered review.
func (a *API) CancelArticle(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.workflow.Cancel(id, user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotArticleAuthor):
			respondError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrNotCancellable):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("cancel article %d failed: %v", id, err)
			respondError(c, http.StatusInternalServerError, "failed to cancel article")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "article cancelled"})
}

// FactCheckArticle submits the article to the external checker. A failed
// collaborator call is reported in the result body, not as an HTTP error.
func (a *API) FactCheckArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	article, err := a.articles.Get(id)
	if err != nil {
		a.respondArticleError(c, err)
		return
	}

	result := a.factCheck.FactCheck(c.Request.Context(), article.Title, article.Content)
	c.JSON(http.StatusOK, result)
}

func (a *API) workflowTransition(c *gin.Context, transition func(articleID, authorID uint) (*db.Article, error)) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	article, err := transition(id, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotArticleAuthor):
			respondError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidStatus),
			errors.Is(err, service.ErrNotAwaitingConfirm):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("workflow transition for article %d failed: %v", id, err)
			respondError(c, http.StatusInternalServerError, "failed to update article status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article})
}

func (a *API) respondArticleError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrArticleNotFound) {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	log.Printf("article lookup failed: %v", err)
	respondError(c, http.StatusInternalServerError, "failed to load article")
}
