package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ebox-messaging/internal/domain/user"
	"ebox-messaging/internal/services"
	"ebox-messaging/internal/transport/httpdto"
)

func identity(c *gin.Context) (user.Identity, bool) {
	id, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
	}
	return id, ok
}

// fail hands the error to the error middleware, which maps the
// taxonomy onto a status code.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
