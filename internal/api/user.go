package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (r *Router) registerUser(c *gin.Context) {
	userID := currentUser(c)

	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := r.engine.RegisterUser(c.Request.Context(), userID, body.Name, body.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (r *Router) getProfile(c *gin.Context) {
	user, err := r.engine.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (r *Router) updateProfile(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var body struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
		Bio    *string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	fields := map[string]interface{}{}
	if body.Name != nil {
		fields["name"] = *body.Name
	}
	if body.Avatar != nil {
		fields["avatar"] = *body.Avatar
	}
	if body.Bio != nil {
		fields["bio"] = *body.Bio
	}

	if err := r.engine.UpdateProfile(c.Request.Context(), userID, fields); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (r *Router) pointsHistory(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	page, limit := pageParams(c)
	transactions, total, err := r.engine.PointsHistory(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "total": total})
}

func (r *Router) listBookmarks(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	page, limit := pageParams(c)
	result, err := r.engine.Bookmarks(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
