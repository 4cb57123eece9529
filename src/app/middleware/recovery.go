package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"dbaccess/src/app/http/response"
)

// Recovery turns a panic into a generic 500, or 503 for connection errors,
// and logs the stack.
// Register it first so it wraps every other middleware.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(c)
				log.Error("panic recovered",
					"request_id", requestID,
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"stack", string(debug.Stack()),
				)

				if e, ok := err.(error); ok {
					response.FromError(c, e, requestID)
				} else {
					response.InternalError(c, requestID)
				}
				c.Abort()
			}
		}()

		c.Next()
	}
}
