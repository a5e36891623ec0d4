package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carepay/internal/domain"
)

// respondError maps domain errors onto HTTP statuses. Unrecognized errors
// are reported as a generic 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDataNotFound),
		errors.Is(err, domain.ErrProviderNotFound),
		errors.Is(err, domain.ErrFamilyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPaymentLimitExceeded),
		errors.Is(err, domain.ErrAllocationExceeded),
		errors.Is(err, domain.ErrPaymentMethodNotConfigured),
		errors.Is(err, domain.ErrPaymentMethodNotAvailable),
		errors.Is(err, domain.ErrProviderNotPayable),
		errors.Is(err, domain.ErrInvalidPaymentState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrChekService),
		errors.Is(err, domain.ErrChekTransfer),
		errors.Is(err, domain.ErrChekACH):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
