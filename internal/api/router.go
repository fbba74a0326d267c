// Package api exposes the engagement engine over REST plus the websocket
// notification stream.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/engagement"
	"github.com/vurse/backend/internal/notify"
	"github.com/vurse/backend/pkg/logging"
)

// Router sets up API routes
type Router struct {
	engine   *engagement.Engine
	notifier *notify.Notifier
	registry *notify.Registry
	database *db.DB
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(engine *engagement.Engine, notifier *notify.Notifier, registry *notify.Registry, database *db.DB) *Router {
	return &Router{
		engine:   engine,
		notifier: notifier,
		registry: registry,
		database: database,
		logger:   logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check endpoints
	engine.GET("/api/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	content := engine.Group("/api/content/v1")
	{
		content.POST("/posts", r.createPost)
		content.GET("/posts", r.listPosts)
		content.GET("/posts/trending", r.trendingPosts)
		content.GET("/posts/:id", r.getPost)
		content.PATCH("/posts/:id", r.updatePost)
		content.DELETE("/posts/:id", r.deletePost)
		content.POST("/posts/:id/heart", r.toggleHeart)
		content.POST("/posts/:id/bookmark", r.toggleBookmark)
		content.POST("/posts/:id/view", r.recordView)
		content.GET("/posts/:id/hearts", r.listHearts)
		content.GET("/posts/:id/comments", r.listComments)
		content.POST("/posts/:id/comments", r.addComment)
		content.DELETE("/comments/:id", r.deleteComment)
	}

	social := engine.Group("/api/social/v1")
	{
		social.POST("/follow/:id", r.follow)
		social.DELETE("/follow/:id", r.unfollow)
		social.GET("/followers/:id", r.followers)
		social.GET("/following/:id", r.following)
		social.GET("/notifications", r.listNotifications)
		social.GET("/notifications/unread", r.unreadNotifications)
		social.POST("/notifications/:id/read", r.markNotificationRead)
		social.POST("/notifications/read-all", r.markAllNotificationsRead)
		social.GET("/notifications/ws", r.notificationStream)
	}

	user := engine.Group("/api/user/v1")
	{
		user.POST("/register", r.registerUser)
		user.GET("/profile/:id", r.getProfile)
		user.PATCH("/profile", r.updateProfile)
		user.GET("/points", r.pointsHistory)
		user.GET("/bookmarks", r.listBookmarks)
	}
}

// currentUser resolves the authenticated caller. Authentication happens at
// the gateway, which forwards the verified identity in a header.
func currentUser(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	if r.database != nil {
		if err := r.database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "DEGRADED",
				"error":  "database unreachable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "vurse-api",
	})
}
