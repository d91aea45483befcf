package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/afrowiki/internal/service"
	"github.com/gin-gonic/gin"
)

// ListBranches returns an article's branches.
func (a *API) ListBranches(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	branches, err := a.branches.List(id)
	if err != nil {
		log.Printf("list branches failed: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to list branches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

// CreateBranch opens a branch rooted at the current latest version.
func (a *API) CreateBranch(c *gin.Context) {
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
		Name string `json:"name"`
	}
	if !bindJSON(c, &payload, "invalid branch payload") {
		return
	}

	branch, err := a.branches.Create(id, user.ID, payload.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArticleNotFound),
			errors.Is(err, service.ErrVersionNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNameRequired):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("create branch failed: %v", err)
			respondError(c, http.StatusInternalServerError, "failed to create branch")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"branch": branch})
}

// UpdateBranch replaces the branch head text.
func (a *API) UpdateBranch(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	branchID, err := parseUintParam(c, "branchId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload struct {
		Content string `json:"content"`
	}
	if !bindJSON(c, &payload, "invalid branch payload") {
		return
	}

	branch, err := a.branches.UpdateContent(branchID, user.ID, payload.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBranchNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBranchClosed),
			errors.Is(err, service.ErrContentRequired):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("update branch %d failed: %v", branchID, err)
			respondError(c, http.StatusInternalServerError, "failed to update branch")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"branch": branch})
}

// MergeBranch folds a branch back into the article through a three-way
// merge. Conflicts come back as a 409 with the conflicting regions.
func (a *API) MergeBranch(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	branchID, err := parseUintParam(c, "branchId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	version, err := a.branches.Merge(branchID, user.ID)
	if err != nil {
		var conflict *service.MergeConflictError
		switch {
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, gin.H{
				"error":     conflict.Error(),
				"conflicts": conflict.Conflicts,
			})
		case errors.Is(err, service.ErrBranchNotFound),
			errors.Is(err, service.ErrArticleNotFound),
			errors.Is(err, service.ErrVersionNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotArticleAuthor):
			respondError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrBranchClosed):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("merge branch %d failed: %v", branchID, err)
			respondError(c, http.StatusInternalServerError, "failed to merge branch")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"version": version})
}
