package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelforge/reelforge/pkg/coordinator"
	"github.com/reelforge/reelforge/pkg/services"
)

// abortWithServiceError maps service and coordinator errors to HTTP
// responses.
func (s *Server) abortWithServiceError(c *gin.Context, err error) {
	var invalid *coordinator.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Reason})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "generation not found"})
	case errors.Is(err, services.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "generation already exists"})
	case errors.Is(err, services.ErrTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "generation already finished"})
	default:
		s.logger.Error("unexpected service error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
