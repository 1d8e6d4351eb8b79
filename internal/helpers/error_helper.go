package helpers

import (
	"net/http"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindValidation,
		apperrors.KindInvalidCredential,
		apperrors.KindUnsupportedImageFormat:
		return http.StatusBadRequest
	case apperrors.KindDuplicateIdentifier, apperrors.KindDuplicateStudent:
		return http.StatusConflict
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithAppError writes err as an ErrorResponse. Server-side failures are
// logged with their cause and answered with a generic message.
func RespondWithAppError(c *gin.Context, log *zerolog.Logger, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}

	status := StatusFor(appErr.Kind)
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		if log != nil {
			log.Error().Err(err).
				Str("method", c.Request.Method).
				Str("path", c.FullPath()).
				Str("kind", string(appErr.Kind)).
				Msg("request failed")
		}
		message = "Something went wrong. Please try again later."
	}

	c.JSON(status, ErrorResponse{
		Error:   HTTPStatusText(status),
		Code:    string(appErr.Kind),
		Message: message,
		Fields:  appErr.Fields,
	})
}
