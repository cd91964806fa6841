package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"commute/internal/domain"
	"commute/internal/middleware"
	"commute/internal/service"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Current string `json:"current_status,omitempty"`
	Which   string `json:"which,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Internal errors are not echoed to the client.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal error"})
		return
	}

	resp := ErrorResponse{Error: err.Error()}

	var transition *service.TransitionError
	if errors.As(err, &transition) {
		resp.Current = transition.Current
	}

	var mismatch *service.MismatchError
	if errors.As(err, &mismatch) {
		resp.Which = mismatch.Which
	}

	c.JSON(code, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// respondBadRequest sends a 400 for input the handler could not decode.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// mapErrorToHTTPStatus maps service errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrContractExists),
		errors.Is(err, service.ErrRequestBusy):
		return http.StatusConflict
	case errors.Is(err, service.ErrReferentialMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// actor returns the authenticated caller. Routes are mounted behind
// AuthMiddleware, so a missing actor is a wiring error.
func actor(c *gin.Context) domain.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
