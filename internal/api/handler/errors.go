package handler

import (
	"errors"
	"net/http"
	"strconv"

	"garage_config/internal/domain"
	"garage_config/internal/repository"
	"garage_config/internal/service"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps service and repository errors onto HTTP statuses.
// action is the message used for unexpected failures.
func writeServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Garage not found"})
	case errors.Is(err, repository.ErrDuplicateEntry):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidGarage),
		errors.Is(err, domain.ErrInvalidLevel),
		errors.Is(err, domain.ErrInvalidElementType),
		errors.Is(err, service.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": action, "details": err.Error()})
	}
}

func levelParam(c *gin.Context) (int, bool) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid level index"})
		return 0, false
	}
	return level, true
}
