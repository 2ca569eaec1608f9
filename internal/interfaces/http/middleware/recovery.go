package middleware

import (
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/shared/logger"
	"cdrcgi/internal/shared/utils"
)

// Notifier alerts operators about unhandled failures.
type Notifier interface {
	SendFailureNotice(endpoint, user, detail string) error
}

// Recovery converts panics into a 500 response, logging the stack and
// notifying operations. A nil notifier disables the mail.
func Recovery(notifier Notifier) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if checkBrokenConnection(recovered) {
			logger.Error("connection broken during request",
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"error", recovered)
			c.Abort()
			return
		}

		stack := string(debug.Stack())
		logger.Error("panic recovered",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"error", recovered,
			"stack", stack)

		if notifier != nil {
			detail := strings.Join([]string{
				"panic: " + toString(recovered),
				stack,
			}, "\n")
			if err := notifier.SendFailureNotice(c.Request.URL.Path, c.ClientIP(), detail); err != nil {
				logger.Warn("failed to send failure notice", "error", err)
			}
		}

		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error occurred")
	})
}

func toString(v interface{}) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown panic value"
}

func checkBrokenConnection(err interface{}) bool {
	brokenConnections := []string{
		"connection reset by peer",
		"broken pipe",
		"connection refused",
	}

	if ne, ok := err.(*net.OpError); ok {
		if se, ok := ne.Err.(*os.SyscallError); ok {
			errStr := strings.ToLower(se.Error())
			for _, s := range brokenConnections {
				if strings.Contains(errStr, s) {
					return true
				}
			}
		}
	}
	return false
}
