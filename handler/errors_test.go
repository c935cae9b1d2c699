package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/addy2510/policymanager/middleware"
	"github.com/addy2510/policymanager/service"
	"github.com/gin-gonic/gin"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{"already exists", service.AlreadyExists("Policy number %d already exists", 5), http.StatusConflict, "Policy number 5 already exists"},
		{"not found", service.NotFound("Policy not found: %d", 5), http.StatusNotFound, "Policy not found: 5"},
		{"validation", service.ValidationFailed("bad"), http.StatusBadRequest, "bad"},
		{"media type", service.UnsupportedMediaType("nope"), http.StatusUnsupportedMediaType, "nope"},
		{"too large", service.PayloadTooLarge("big"), http.StatusRequestEntityTooLarge, "big"},
		{"wrapped domain error", fmt.Errorf("lookup: %w", service.NotFound("gone")), http.StatusNotFound, "lookup: gone"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(middleware.RequestID())
			router.GET("/x", func(c *gin.Context) {
				respondError(c, tt.err)
			})

			req := httptest.NewRequest("GET", "/x", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			body := decodeError(t, w)
			if body.Message != tt.expectedMsg {
				t.Errorf("Expected message %q, got %q", tt.expectedMsg, body.Message)
			}
			if body.Error != http.StatusText(tt.expectedStatus) {
				t.Errorf("Expected error %q, got %q", http.StatusText(tt.expectedStatus), body.Error)
			}
			if body.RequestID == "" {
				t.Error("Expected requestId in body")
			}
		})
	}
}
