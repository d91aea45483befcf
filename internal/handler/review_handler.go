package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/afrowiki/internal/service"
	"github.com/gin-gonic/gin"
)

// ListOpenReviews returns claimable reviews.
func (a *API) ListOpenReviews(c *gin.Context) {
	reviews, err := a.reviews.ListOpen()
	if err != nil {
		log.Printf("list open reviews failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list reviews")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// ListArticleReviews returns every review on an article.
func (a *API) ListArticleReviews(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	reviews, err := a.reviews.ListForArticle(id)
	if err != nil {
		log.Printf("list article reviews failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list reviews")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// OpenReviews creates unassigned reviews for an article.
func (a *API) OpenReviews(c *gin.Context) {
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
		Types []string `json:"types"`
	}
	if !bindJSON(c, &payload, "invalid review payload") {
		return
	}
	if len(payload.Types) == 0 {
		respondError(c, http.StatusBadRequest, "at least one review type is required")
		return
	}

	reviews, err := a.reviews.Open(id, user.ID, payload.Types)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidReviewType):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("open reviews failed: %v", err)
			respondError(c, http.StatusInternalServerError, "failed to open reviews")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reviews": reviews})
}

// ClaimReview self-assigns an unassigned review, gated on reputation.
func (a *API) ClaimReview(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	reviewID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	review, err := a.reviews.Claim(reviewID, user.ID)
	if err != nil {
		var repErr *service.ReputationError
		switch {
		case errors.As(err, &repErr):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "insufficient reputation: " + repErr.ReviewType +
					" reviews require more reputation points",
				"currentReputation":  repErr.Current,
				"requiredReputation": repErr.Required,
			})
		case errors.Is(err, service.ErrReviewNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrReviewAssigned):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("claim review %d failed: %v", reviewID, err)
			respondError(c, http.StatusInternalServerError, "failed to claim review")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "review assigned successfully", "review": review})
}

// CompleteReview finishes an in-progress review; the reputation award is
// computed server side.
func (a *API) CompleteReview(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	reviewID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload struct {
		Score    int    `json:"score"`
		Feedback string `json:"feedback"`
	}
	if !bindJSON(c, &payload, "invalid review payload") {
		return
	}

	review, err := a.reviews.Complete(reviewID, user.ID, payload.Score, payload.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotReviewAssignee):
			respondError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrReviewNotInProgress):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("complete review %d failed: %v", reviewID, err)
			respondError(c, http.StatusInternalServerError, "failed to complete review")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}
