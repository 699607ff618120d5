package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vantrack/internal/faults"
)

// respondError maps an engine error onto an HTTP status plus a structured
// error body carrying the taxonomy code.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, faults.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, faults.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, faults.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, faults.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, faults.ErrTransient):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": faults.Code(err)})
}
