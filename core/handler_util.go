package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body sent with 4xx answers.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// respondError sends the unified error payload {"code", "message"}.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Code: status, Message: message})
}

// statusForKind maps a login failure to its HTTP status. Only client errors carry a body.
func statusForKind(kind ErrorKind) (int, bool) {
	switch kind {
	case KindInvalidRequest:
		return http.StatusBadRequest, true
	case KindResourceConflict:
		return http.StatusConflict, true
	default:
		return http.StatusInternalServerError, false
	}
}
