package http

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pr2ps/levelimporter/internal/database"
	"github.com/pr2ps/levelimporter/internal/importers"
	"github.com/pr2ps/levelimporter/internal/pr2"
	"github.com/pr2ps/levelimporter/internal/services"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondServiceError maps errors returned by the import service to a status
// code. Unknown errors are treated as internal.
func respondServiceError(c *gin.Context, err error, context string) {
	var validation *database.ValidationError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "invalid_store"})
	case errors.Is(err, os.ErrNotExist):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "file_not_found"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "record")
	case errors.Is(err, importers.ErrAlreadyRunning),
		errors.Is(err, importers.ErrQueueLocked),
		errors.Is(err, pr2.ErrSearchInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "busy"})
	case errors.Is(err, importers.ErrStoreUnavailable),
		errors.Is(err, services.ErrUsersUnavailable),
		errors.Is(err, services.ErrSearchUnavailable):
		c.JSON(http.StatusPreconditionFailed, ErrorResponse{Error: err.Error(), Code: "not_attached"})
	case errors.Is(err, importers.ErrOwnerRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "owner_required"})
	case errors.Is(err, importers.ErrEmptyQueue):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "empty_queue"})
	case errors.Is(err, importers.ErrTransient):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "remote_unavailable"})
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: data})
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseQueryInt reads an optional integer query parameter.
// Responds with a 400 error and returns 0, false when it is not a number.
func parseQueryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
