package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/afrowiki/internal/service"
	"github.com/gin-gonic/gin"
)

// ListWatchlist returns the user's watched articles with unread flags.
func (a *API) ListWatchlist(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	entries, err := a.watchlists.List(user.ID)
	if err != nil {
		log.Printf("list watchlist failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to load watchlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchlist": entries})
}

// Watch subscribes the user to an article.
func (a *API) Watch(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	var payload struct {
		ArticleID uint `json:"articleId"`
	}
	if !bindJSON(c, &payload, "invalid watch payload") {
		return
	}

	watch, err := a.watchlists.Watch(user.ID, payload.ArticleID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyWatching):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("watch article %d failed: %v", payload.ArticleID, err)
			respondError(c, http.StatusInternalServerError, "failed to watch article")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"watch": watch})
}

// Unwatch removes the subscription.
func (a *API) Unwatch(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	articleID, err := parseUintParam(c, "articleId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.watchlists.Unwatch(user.ID, articleID); err != nil {
		if errors.Is(err, service.ErrWatchNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("unwatch article %d failed: %v", articleID, err)
		respondError(c, http.StatusInternalServerError, "failed to unwatch article")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "article removed from watchlist"})
}

// MarkWatchRead advances the read watermark to now.
func (a *API) MarkWatchRead(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	articleID, err := parseUintParam(c, "articleId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.watchlists.MarkRead(user.ID, articleID); err != nil {
		if errors.Is(err, service.ErrWatchNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("mark watch read failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to mark as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}
