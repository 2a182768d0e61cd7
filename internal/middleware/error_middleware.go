package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ebox-messaging/internal/transport/httpdto"
	ebox_errors "ebox-messaging/pkg/errors"
	"ebox-messaging/pkg/logger"
)

// ErrorHandler maps the error taxonomy onto HTTP responses. Handlers
// attach errors with c.Error and let this middleware shape the reply.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Errorf("request error: %s", err.Error())
		}

		status, code := classify(err)
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ebox_errors.ErrValidation), errors.Is(err, ebox_errors.ErrInvalidTransition):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, ebox_errors.ErrPermission):
		return http.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, ebox_errors.ErrPolicy):
		return http.StatusForbidden, "POLICY_DENIED"
	case errors.Is(err, ebox_errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ebox_errors.ErrPersistence):
		return http.StatusBadGateway, "PERSISTENCE_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}
