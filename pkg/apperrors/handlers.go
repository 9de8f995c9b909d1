package apperrors

import (
	"github.com/gin-gonic/gin"

	"mentorhub_backend/internal/logger"
)

// ErrorResponse is the standard error envelope for HTTP responses.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// HandleError writes an error to the response in the standard envelope.
// Non-AppError values are wrapped as internal errors.
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		logger.CtxWithError(c.Request.Context(), "server error", appErr.Unwrap(), "path", c.Request.URL.Path)
	}

	c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// AsAppError attempts to unwrap an error into *AppError.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
