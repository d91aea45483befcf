package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/afrowiki/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestAPI(t *testing.T) (*gin.Engine, *API, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	api := NewAPI(gdb, t.TempDir(), "/static/uploads", "", "")

	r := gin.New()
	r.Use(sessions.Sessions("afrowiki_session", cookie.NewStore([]byte("test-secret"))))

	r.POST("/api/auth/register", api.Register)
	r.POST("/api/auth/login", api.Login)
	r.POST("/api/auth/logout", api.Logout)
	r.GET("/api/auth/me", AuthRequired(), api.Me)

	r.GET("/api/articles/:id", api.GetArticle)

	authed := r.Group("/api", AuthRequired())
	authed.POST("/articles", api.CreateArticle)
	authed.POST("/articles/:id/versions", api.CreateVersion)
	authed.GET("/articles/:id/versions", api.ListVersions)
	authed.GET("/articles/:id/diff", api.DiffVersions)
	authed.POST("/articles/:id/reviews", api.OpenReviews)
	authed.POST("/reviews/:id/claim", api.ClaimReview)
	authed.POST("/watchlist", api.Watch)

	admin := r.Group("/api/admin", AuthRequired(), api.AdminRequired())
	admin.GET("/users", api.AdminListUsers)
	admin.PUT("/articles/:id/status", api.AdminUpdateStatus)

	return r, api, gdb
}

// testClient replays session cookies across requests.
type testClient struct {
	t       *testing.T
	engine  *gin.Engine
	cookies []*http.Cookie
}

func (tc *testClient) do(method, path string, payload any) *httptest.ResponseRecorder {
	tc.t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			tc.t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	tc.engine.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		tc.cookies = set
	}
	return w
}

func (tc *testClient) register(name string) {
	tc.t.Helper()
	w := tc.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "hunter2-long-enough",
	})
	if w.Code != http.StatusCreated {
		tc.t.Fatalf("register %s: expected 201, got %d: %s", name, w.Code, w.Body.String())
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestSessionLifecycle(t *testing.T) {
	engine, _, _ := setupTestAPI(t)
	client := &testClient{t: t, engine: engine}

	if w := client.do(http.MethodGet, "/api/auth/me", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me without session: expected 401, got %d", w.Code)
	}

	client.register("sessions")

	w := client.do(http.MethodGet, "/api/auth/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me with session: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	user, _ := body["user"].(map[string]any)
	if user["email"] != "sessions@example.com" {
		t.Fatalf("unexpected user payload: %v", body)
	}

	if w := client.do(http.MethodPost, "/api/auth/logout", nil); w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}
	if w := client.do(http.MethodGet, "/api/auth/me", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", w.Code)
	}
}

func TestVersionConflictOverHTTP(t *testing.T) {
	engine, _, _ := setupTestAPI(t)
	client := &testClient{t: t, engine: engine}
	client.register("editor")

	w := client.do(http.MethodPost, "/api/articles", map[string]any{
		"title":   "Queen Amina",
		"content": "warrior queen of Zazzau",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create article: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	article, _ := body["article"].(map[string]any)
	articleID := uint(article["ID"].(float64))

	w = client.do(http.MethodPost, fmt.Sprintf("/api/articles/%d/versions", articleID), map[string]any{
		"content":         "expanded biography",
		"expectedVersion": 1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create version: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = client.do(http.MethodPost, fmt.Sprintf("/api/articles/%d/versions", articleID), map[string]any{
		"content":         "based on the old text",
		"expectedVersion": 1,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("stale token: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReviewClaimForbiddenPayload(t *testing.T) {
	engine, _, gdb := setupTestAPI(t)
	client := &testClient{t: t, engine: engine}
	client.register("lowrep")

	w := client.do(http.MethodPost, "/api/articles", map[string]any{
		"title":   "Claimable",
		"content": "body",
	})
	body := decodeBody(t, w)
	article, _ := body["article"].(map[string]any)
	articleID := uint(article["ID"].(float64))

	w = client.do(http.MethodPost, fmt.Sprintf("/api/articles/%d/reviews", articleID), map[string]any{
		"types": []string{"final"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("open reviews: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var review db.Review
	if err := gdb.Where("article_id = ?", articleID).First(&review).Error; err != nil {
		t.Fatalf("load review: %v", err)
	}

	w = client.do(http.MethodPost, fmt.Sprintf("/api/reviews/%d/claim", review.ID), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("claim: expected 403, got %d: %s", w.Code, w.Body.String())
	}
	payload := decodeBody(t, w)
	if payload["currentReputation"] != float64(0) || payload["requiredReputation"] != float64(100) {
		t.Fatalf("expected reputation comparison in payload, got %v", payload)
	}
}

func TestAdminRoutesEnforceRole(t *testing.T) {
	engine, _, gdb := setupTestAPI(t)
	client := &testClient{t: t, engine: engine}
	client.register("wannabe")

	if w := client.do(http.MethodGet, "/api/admin/users", nil); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", w.Code)
	}

	if err := gdb.Model(&db.User{}).Where("email = ?", "wannabe@example.com").
		Update("role", db.RoleAdmin).Error; err != nil {
		t.Fatalf("promote user: %v", err)
	}

	if w := client.do(http.MethodGet, "/api/admin/users", nil); w.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDuplicateWatchIsBadRequest(t *testing.T) {
	engine, _, _ := setupTestAPI(t)
	client := &testClient{t: t, engine: engine}
	client.register("watcher")

	w := client.do(http.MethodPost, "/api/articles", map[string]any{
		"title":   "Watched Topic",
		"content": "body",
	})
	body := decodeBody(t, w)
	article, _ := body["article"].(map[string]any)
	articleID := uint(article["ID"].(float64))

	if w := client.do(http.MethodPost, "/api/watchlist", map[string]any{"articleId": articleID}); w.Code != http.StatusCreated {
		t.Fatalf("watch: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := client.do(http.MethodPost, "/api/watchlist", map[string]any{"articleId": articleID}); w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate watch: expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
