package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vurse/backend/internal/engagement"
)

// respondError maps engine sentinel errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the details go to the log, not
// the client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engagement.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, engagement.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, engagement.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, engagement.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting update, retry"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
