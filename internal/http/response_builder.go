package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carteira/internal/core"
	applog "carteira/internal/log"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps the core error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrRetrieval):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// buildError renders err for clients. Messages of unexpected failures are
// not exposed.
func buildError(err error) (int, errorResponse) {
	status := statusFor(err)
	switch status {
	case http.StatusUnprocessableEntity:
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return status, errorResponse{Error: ve.Error(), Field: ve.Field}
		}
		return status, errorResponse{Error: err.Error()}
	case http.StatusNotFound:
		return status, errorResponse{Error: "not found"}
	case http.StatusConflict:
		return status, errorResponse{Error: "already exists"}
	case http.StatusUnauthorized:
		return status, errorResponse{Error: "authentication required"}
	case http.StatusServiceUnavailable:
		return status, errorResponse{Error: "data temporarily unavailable, try again"}
	default:
		return status, errorResponse{Error: "internal error"}
	}
}

// abortWithError writes the error response and records err on the context
// so the trace middleware logs it.
func abortWithError(c *gin.Context, err error) {
	status, body := buildError(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "Request failed",
			applog.FieldError, err, applog.FieldStatusCode, status)
	}
	c.AbortWithStatusJSON(status, body)
}

// attachment sends data as a file download.
func attachment(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
