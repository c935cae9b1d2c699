package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/addy2510/policymanager/config"
	"github.com/minio/minio-go/v7"
)

func TestNewMinioBlobStore(t *testing.T) {
	cfg := &config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "policy-docs",
		UseSSL:    false,
	}

	store, err := NewMinioBlobStore(cfg)
	if err != nil {
		t.Fatalf("Expected client creation to succeed, got %v", err)
	}
	if store.bucket != "policy-docs" {
		t.Errorf("Expected bucket policy-docs, got %s", store.bucket)
	}
	if err := store.EnsureNamespace(context.Background(), "1001"); err != nil {
		t.Errorf("Expected EnsureNamespace to be a no-op, got %v", err)
	}
}

func TestNewMinioBlobStoreInvalidEndpoint(t *testing.T) {
	_, err := NewMinioBlobStore(&config.MinioConfig{Endpoint: "http://localhost:9000/path"})
	if err == nil {
		t.Error("Expected error for endpoint with scheme and path")
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		namespace string
		name      string
		expected  string
	}{
		{"1001", "1718447400123_scan.pdf", "1001/1718447400123_scan.pdf"},
		{"42", "a.png", "42/a.png"},
	}

	for _, tt := range tests {
		if got := objectKey(tt.namespace, tt.name); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}

func TestIsMissingObject(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, true},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, false},
		{"plain error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isMissingObject(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestMinioBlobStoreCancelledContext(t *testing.T) {
	store, err := NewMinioBlobStore(&config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "test",
	})
	if err != nil {
		t.Skip("Could not create MinIO client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Put(ctx, "1", "a.pdf", strings.NewReader("test"), 4, "application/pdf"); err == nil {
		t.Error("Expected upload with cancelled context to fail")
	}
}
