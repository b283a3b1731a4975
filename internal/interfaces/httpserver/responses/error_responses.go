package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clip-server/internal/domain/video"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HandleError maps domain errors to HTTP responses.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *video.Error
	if errors.As(err, &domainErr) {
		reqCtx.AbortWithStatusJSON(video.KindToHTTPStatus(domainErr.Kind), ErrorResponse{
			Code:    string(domainErr.Kind),
			Error:   domainErr.Error(),
			Message: message,
		})
		return
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:   message,
		Message: message,
	})
}
