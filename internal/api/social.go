package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (r *Router) follow(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	changed, err := r.engine.Follow(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true, "changed": changed})
}

func (r *Router) unfollow(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	changed, err := r.engine.Unfollow(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false, "changed": changed})
}

func (r *Router) followers(c *gin.Context) {
	page, limit := pageParams(c)
	users, total, err := r.engine.Followers(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

func (r *Router) following(c *gin.Context) {
	page, limit := pageParams(c)
	users, total, err := r.engine.Following(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

func (r *Router) listNotifications(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	page, limit := pageParams(c)
	notifications, total, err := r.notifier.Inbox(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "total": total})
}

func (r *Router) unreadNotifications(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	count, err := r.notifier.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (r *Router) markNotificationRead(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	ok, err := r.notifier.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

func (r *Router) markAllNotificationsRead(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	changed, err := r.notifier.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": changed})
}

// notificationStream upgrades to a websocket and holds it open for pushes
// until the client goes away.
func (r *Router) notificationStream(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	r.registry.ServeWS(c, userID)
}
