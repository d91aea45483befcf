package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/afrowiki/internal/db"
	"github.com/afrowiki/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionUserKey = "user_id"

// Register creates an account and opens a session.
func (a *API) Register(c *gin.Context) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &payload, "invalid registration payload") {
		return
	}

	user, err := a.users.Register(payload.Name, payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("register failed: %v", err)
			respondError(c, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": userView(user)})
}

// Login checks credentials and opens a session.
func (a *API) Login(c *gin.Context) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &payload, "invalid login payload") {
		return
	}

	user, err := a.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		log.Printf("login failed: %v", err)
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

// Logout clears the session.
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the current account.
func (a *API) Me(c *gin.Context) {
	user, ok := a.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(user)})
}

// AuthRequired rejects requests without a valid session. An absent or
// undecodable session value is a plain 401; there is no side-channel
// inspection of logs to detect bad tokens.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if _, ok := session.Get(sessionUserKey).(uint); !ok {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired rejects non-admin sessions with 403.
func (a *API) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := a.currentUser(c)
		if !ok {
			c.Abort()
			return
		}
		if user.Role != db.RoleAdmin {
			respondError(c, http.StatusForbidden, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUser resolves the session to an account, answering 401 itself
// when the session is missing or stale.
func (a *API) currentUser(c *gin.Context) (*db.User, bool) {
	session := sessions.Default(c)
	userID, ok := session.Get(sessionUserKey).(uint)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	user, err := a.users.Get(userID)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

func userView(user *db.User) gin.H {
	return gin.H{
		"id":                 user.ID,
		"name":               user.Name,
		"email":              user.Email,
		"role":               user.Role,
		"reviewerReputation": user.ReviewerReputation,
	}
}
