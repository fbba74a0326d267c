package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vurse/backend/internal/db"
	"github.com/vurse/backend/internal/engagement"
	"github.com/vurse/backend/internal/models"
)

func (r *Router) createPost(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var input engagement.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := r.engine.CreatePost(c.Request.Context(), userID, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (r *Router) listPosts(c *gin.Context) {
	page, limit := pageParams(c)
	query := &db.PostQuery{
		Search: c.Query("search"),
		SortBy: c.Query("sort"),
		Page:   page,
		Limit:  limit,
	}
	if types := c.Query("types"); types != "" {
		query.Types = strings.Split(types, ",")
	}
	if author := c.Query("author"); author != "" {
		query.AuthorIDs = []string{author}
	}
	switch c.Query("duration") {
	case "day":
		query.CreatedAfter = time.Now().UTC().Add(-24 * time.Hour)
	case "week":
		query.CreatedAfter = time.Now().UTC().Add(-7 * 24 * time.Hour)
	case "month":
		query.CreatedAfter = time.Now().UTC().Add(-30 * 24 * time.Hour)
	}

	if c.Query("feed") == "following" {
		userID := currentUser(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		result, err := r.engine.FollowingPosts(c.Request.Context(), userID, query)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	result, err := r.engine.ListPosts(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) listHearts(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := r.engine.Hearts(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) trendingPosts(c *gin.Context) {
	_, limit := pageParams(c)
	posts, err := r.engine.Trending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (r *Router) getPost(c *gin.Context) {
	post, err := r.engine.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (r *Router) updatePost(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var body struct {
		Title    *string `json:"title"`
		Image    *string `json:"image"`
		Content  *string `json:"content"`
		IsDraft  *bool   `json:"is_draft"`
		Is18Plus *bool   `json:"is_18_plus"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	fields := map[string]interface{}{}
	if body.Title != nil {
		fields["title"] = *body.Title
	}
	if body.Image != nil {
		fields["image"] = *body.Image
	}
	if body.Content != nil {
		fields["content"] = *body.Content
	}
	if body.IsDraft != nil {
		fields["is_draft"] = *body.IsDraft
	}
	if body.Is18Plus != nil {
		fields["is_18_plus"] = *body.Is18Plus
	}

	if err := r.engine.UpdatePost(c.Request.Context(), userID, c.Param("id"), fields); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (r *Router) deletePost(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := r.engine.DeletePost(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (r *Router) toggleHeart(c *gin.Context) {
	r.toggle(c, models.ReactionHeart)
}

func (r *Router) toggleBookmark(c *gin.Context) {
	r.toggle(c, models.ReactionBookmark)
}

func (r *Router) toggle(c *gin.Context, kind models.ReactionKind) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	result, err := r.engine.Toggle(c.Request.Context(), userID, c.Param("id"), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (r *Router) recordView(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	counted, err := r.engine.RecordView(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counted": counted})
}

func (r *Router) listComments(c *gin.Context) {
	page, limit := pageParams(c)
	comments, total, err := r.engine.ListComments(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "total": total})
}

func (r *Router) addComment(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := r.engine.AddComment(c.Request.Context(), userID, c.Param("id"), body.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (r *Router) deleteComment(c *gin.Context) {
	userID := currentUser(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := r.engine.DeleteComment(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
