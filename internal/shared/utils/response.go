// Package utils holds small helpers shared by the JSON API handlers.
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cdrcgi/internal/shared/errors"
)

type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

// ErrorResponseWithError maps a typed application error onto the
// matching HTTP status, hiding internal detail for 5xx failures.
func ErrorResponseWithError(c *gin.Context, err error) {
	status := errors.StatusCode(err)
	message := "internal error"
	if appErr := errors.GetAppError(err); appErr != nil && status < http.StatusInternalServerError {
		message = appErr.Message
	}
	ErrorResponse(c, status, message)
}
