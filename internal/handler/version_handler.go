package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/afrowiki/internal/service"
	"github.com/gin-gonic/gin"
)

// ListVersions returns the article's version history, newest first.
func (a *API) ListVersions(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	versions, err := a.versions.List(id, user.ID)
	if err != nil {
		a.respondVersionError(c, err, "failed to list versions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// CreateVersion appends a new content version.
func (a *API) CreateVersion(c *gin.Context) {
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
		Content         string `json:"content"`
		Summary         string `json:"summary"`
		ExpectedVersion *int   `json:"expectedVersion"`
	}
	if !bindJSON(c, &payload, "invalid version payload") {
		return
	}

	version, err := a.versions.Create(id, user.ID, service.VersionInput{
		Content:         payload.Content,
		Summary:         payload.Summary,
		ExpectedVersion: payload.ExpectedVersion,
	})
	if err != nil {
		a.respondVersionError(c, err, "failed to create version")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"version": version})
}

// RestoreVersion copies an earlier version's content into a new one.
func (a *API) RestoreVersion(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	versionID, err := parseUintParam(c, "versionId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload struct {
		ExpectedVersion *int `json:"expectedVersion"`
	}
	// body is optional for restore
	_ = c.ShouldBindJSON(&payload)

	version, err := a.versions.Restore(id, versionID, user.ID, payload.ExpectedVersion)
	if err != nil {
		a.respondVersionError(c, err, "failed to restore version")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"version": version})
}

// DiffVersions returns the cached or freshly computed diff between two
// versions of the article.
func (a *API) DiffVersions(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	fromID, fromOK := parseUintQuery(c, "from")
	toID, toOK := parseUintQuery(c, "to")
	if !fromOK || !toOK {
		respondError(c, http.StatusBadRequest, "both from and to version ids are required")
		return
	}

	diff, err := a.versions.Diff(id, fromID, toID)
	if err != nil {
		a.respondVersionError(c, err, "failed to compute diff")
		return
	}

	c.JSON(http.StatusOK, diff)
}

func (a *API) respondVersionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrArticleNotFound),
		errors.Is(err, service.ErrVersionNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotArticleAuthor):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrContentRequired):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrVersionConflict):
		respondError(c, http.StatusConflict, err.Error())
	default:
		log.Printf("%s: %v", fallback, err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
