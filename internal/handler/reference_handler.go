package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/afrowiki/internal/service"
	"github.com/gin-gonic/gin"
)

// LookupDOI resolves DOI metadata.
func (a *API) LookupDOI(c *gin.Context) {
	doi := strings.TrimPrefix(c.Param("doi"), "/")

	ref, err := a.references.LookupDOI(c.Request.Context(), doi)
	if err != nil {
		if errors.Is(err, service.ErrReferenceNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("doi lookup failed: %v", err)
		respondError(c, http.StatusInternalServerError, "reference lookup failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reference": ref})
}

// LookupISBN resolves ISBN metadata.
func (a *API) LookupISBN(c *gin.Context) {
	isbn := c.Param("isbn")

	ref, err := a.references.LookupISBN(c.Request.Context(), isbn)
	if err != nil {
		if errors.Is(err, service.ErrReferenceNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("isbn lookup failed: %v", err)
		respondError(c, http.StatusInternalServerError, "reference lookup failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reference": ref})
}
