package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/afrowiki/internal/config"
	"github.com/afrowiki/internal/handler"
)

// SetupRouter configures the gin engine, session middleware and routes.
func SetupRouter(cfg config.AppConfig, api *handler.API) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("afrowiki_session", store))

	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/register", api.Register)
			auth.POST("/login", api.Login)
			auth.POST("/logout", api.Logout)
			auth.GET("/me", handler.AuthRequired(), api.Me)
		}

		// Public read surface.
		apiGroup.GET("/articles", api.ListArticles)
		apiGroup.GET("/articles/random", api.RandomArticle)
		apiGroup.GET("/articles/:id", api.GetArticle)
		apiGroup.GET("/articles/:id/html", api.GetArticleHTML)
		apiGroup.GET("/articles/:id/related", api.RelatedArticles)
		apiGroup.GET("/articles/:id/comments", api.ListComments)
		apiGroup.GET("/articles/:id/reviews", api.ListArticleReviews)
		apiGroup.POST("/articles/:id/view", api.ViewArticle)

		// DOIs contain slashes, so the identifier is a wildcard segment.
		apiGroup.GET("/references/doi/*doi", api.LookupDOI)
		apiGroup.GET("/references/isbn/:isbn", api.LookupISBN)

		// Routes requiring a session.
		authed := apiGroup.Group("")
		authed.Use(handler.AuthRequired())
		{
			authed.POST("/articles", api.CreateArticle)
			authed.PUT("/articles/:id", api.UpdateArticle)
			authed.POST("/articles/:id/like", api.LikeArticle)
			authed.POST("/articles/:id/submit", api.SubmitArticle)
			authed.POST("/articles/:id/confirm", api.ConfirmArticle)
			authed.POST("/articles/:id/cancel", api.CancelArticle)
			authed.POST("/articles/:id/fact-check", api.FactCheckArticle)

			authed.GET("/articles/:id/versions", api.ListVersions)
			authed.POST("/articles/:id/versions", api.CreateVersion)
			authed.POST("/articles/:id/versions/:versionId/restore", api.RestoreVersion)
			authed.GET("/articles/:id/diff", api.DiffVersions)

			authed.GET("/articles/:id/branches", api.ListBranches)
			authed.POST("/articles/:id/branches", api.CreateBranch)
			authed.PUT("/articles/:id/branches/:branchId", api.UpdateBranch)
			authed.POST("/articles/:id/branches/:branchId/merge", api.MergeBranch)

			authed.POST("/articles/:id/comments", api.CreateComment)
			authed.DELETE("/articles/:id/comments/:commentId", api.DeleteComment)
			authed.POST("/articles/:id/comments/:commentId/like", api.LikeComment)
			authed.DELETE("/articles/:id/comments/:commentId/like", api.UnlikeComment)

			authed.POST("/articles/:id/reviews", api.OpenReviews)
			authed.GET("/reviews", api.ListOpenReviews)
			authed.POST("/reviews/:id/claim", api.ClaimReview)
			authed.POST("/reviews/:id/complete", api.CompleteReview)

			authed.GET("/watchlist", api.ListWatchlist)
			authed.POST("/watchlist", api.Watch)
			authed.DELETE("/watchlist/:articleId", api.Unwatch)
			authed.POST("/watchlist/:articleId/mark-read", api.MarkWatchRead)

			authed.POST("/upload", api.UploadImage)
		}

		admin := apiGroup.Group("/admin")
		admin.Use(handler.AuthRequired(), api.AdminRequired())
		{
			admin.GET("/users", api.AdminListUsers)
			admin.PUT("/users/:id/role", api.AdminUpdateUserRole)
			admin.GET("/articles", api.AdminListArticles)
			admin.PUT("/articles/:id/status", api.AdminUpdateStatus)
			admin.POST("/articles/rewrite-batch", api.AdminRewriteBatch)
			admin.POST("/articles/clean-markdown", api.AdminCleanMarkdown)
			admin.GET("/audit", api.AdminListAudit)
		}
	}

	return r
}
