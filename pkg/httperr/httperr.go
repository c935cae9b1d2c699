// Package httperr renders the error body shared by handlers and middleware.
package httperr

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Body is the JSON shape of every failed request
type Body struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// NewBody builds an error body for status stamped with the current time.
func NewBody(status int, message string) Body {
	return Body{
		Timestamp: time.Now().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	}
}

// Abort writes the error body and stops the handler chain
func Abort(c *gin.Context, status int, message string) {
	body := NewBody(status, message)
	if id, ok := c.Get("request_id"); ok {
		body.RequestID, _ = id.(string)
	}
	c.AbortWithStatusJSON(status, body)
}
