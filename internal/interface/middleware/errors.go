package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-admin/pkg/response"
)

// ErrorHandler turns errors attached with c.Error into the standard error
// response once the chain has run. Missing records become 404, anything
// else 500. Responses already written are left alone.
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status, msg := http.StatusInternalServerError, "internal server error"
		if errors.Is(err, repository.ErrNotFound) {
			status, msg = http.StatusNotFound, "resource not found"
		} else if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path":       c.Request.URL.Path,
				"request_id": c.GetString("request_id"),
			}).Error("request failed")
		}
		c.JSON(status, response.Error[any](c, status, msg, nil))
	}
}
