package handlers

import (
	"errors"
	"net/http"

	"rabies-risk-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	var sv *domain.SchemaViolationError
	var uc *domain.UnknownCategoryError

	switch {
	// Field-level validation errors
	case errors.As(err, &sv):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": sv.Field})
	case errors.As(err, &uc):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": uc.Field})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrSchemaViolation),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrMissingUserID),
		errors.Is(err, domain.ErrInvalidPagination):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Conflict errors
	case errors.Is(err, domain.ErrPredictionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	// Service unavailable errors
	case errors.Is(err, domain.ErrHistoryUnavailable),
		errors.Is(err, domain.ErrModelNotLoaded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
