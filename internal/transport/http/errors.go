package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/transport/apierror"
)

// writeError renders err and attaches server-side failures to the context so
// the request logger records them.
func writeError(c *gin.Context, err error) {
	status, resp := apierror.FromError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, apierror.BadRequest(message))
}
