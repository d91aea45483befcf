package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/afrowiki/internal/service"
	"github.com/gin-gonic/gin"
)

// ListComments returns an article's comments with like counts.
func (a *API) ListComments(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	comments, err := a.comments.List(id)
	if err != nil {
		log.Printf("list comments failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment attaches a comment to an article.
func (a *API) CreateComment(c *gin.Context) {
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
		Content string `json:"content"`
	}
	if !bindJSON(c, &payload, "invalid comment payload") {
		return
	}

	comment, err := a.comments.Create(id, user.ID, payload.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrContentRequired):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("create comment failed: %v", err)
			respondError(c, http.StatusInternalServerError, "failed to create comment")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// DeleteComment removes a comment. Comment author or admin only.
func (a *API) DeleteComment(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	commentID, err := parseUintParam(c, "commentId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.comments.Delete(commentID, user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotCommentOwner):
			respondError(c, http.StatusForbidden, err.Error())
		default:
			log.Printf("delete comment %d failed: %v", commentID, err)
			respondError(c, http.StatusInternalServerError, "failed to delete comment")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

// LikeComment records the user's like.
func (a *API) LikeComment(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	commentID, err := parseUintParam(c, "commentId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.comments.Like(commentID, user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyLiked):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("like comment %d failed: %v", commentID, err)
			respondError(c, http.StatusInternalServerError, "failed to like comment")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "comment liked"})
}

// UnlikeComment removes the user's like.
func (a *API) UnlikeComment(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	commentID, err := parseUintParam(c, "commentId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.comments.Unlike(commentID, user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrLikeNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		default:
			log.Printf("unlike comment %d failed: %v", commentID, err)
			respondError(c, http.StatusInternalServerError, "failed to unlike comment")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "like removed"})
}
