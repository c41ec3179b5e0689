package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/agent-tutor/internal/tutor"
)

// APIError is the body of every failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope wraps APIError under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

var errBadRequest = errors.New("malformed request")

// statusFor maps an error kind to its HTTP status.
func statusFor(kind tutor.Kind) int {
	switch kind {
	case tutor.KindValidation:
		return http.StatusBadRequest
	case tutor.KindInvariant:
		return http.StatusConflict
	case tutor.KindCollaborator:
		return http.StatusBadGateway
	case tutor.KindPermission:
		return http.StatusUnauthorized
	case tutor.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	kind := tutor.KindOf(err)
	status := statusFor(kind)
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		kind, status = tutor.KindValidation, http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		kind, status = tutor.KindValidation, http.StatusBadRequest
	}
	c.Error(err)
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Code: string(kind), Message: err.Error()},
	})
}

func badRequest(c *gin.Context, err error) {
	respondError(c, errors.Join(errBadRequest, err))
}
