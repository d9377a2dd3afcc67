package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/errs"
)

// respondError maps the error taxonomy onto HTTP status codes. Validation
// and conflict errors carry their message so the caller can correct the
// request; storage errors surface as a generic failure.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errs.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
