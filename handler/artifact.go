package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/addy2510/policymanager/middleware"
	"github.com/addy2510/policymanager/pkg/logger"
	"github.com/addy2510/policymanager/service"
	"github.com/gin-gonic/gin"
)

type ArtifactHandler struct {
	artifacts *service.ArtifactService
}

func NewArtifactHandler(artifacts *service.ArtifactService) *ArtifactHandler {
	return &ArtifactHandler{artifacts: artifacts}
}

// Upload handles multipart file upload for a policy
func (h *ArtifactHandler) Upload(c *gin.Context) {
	policyNo, err := parsePolicyNumber(c.Param("policyNumber"))
	if err != nil {
		respondError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		switch {
		case middleware.IsBodyTooLarge(err):
			respondError(c, service.PayloadTooLarge("File exceeds maximum allowed size of %d bytes", h.artifacts.MaxSize()))
		case errors.Is(err, http.ErrMissingFile):
			respondError(c, service.ValidationFailed("No file provided"))
		default:
			respondError(c, service.ValidationFailed("Invalid multipart request: %v", err))
		}
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	artifact, err := h.artifacts.Upload(c.Request.Context(), policyNo, service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, artifact)
}

func (h *ArtifactHandler) List(c *gin.Context) {
	policyNo, err := parsePolicyNumber(c.Param("policyNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	req, err := pageRequest(c, artifactPageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.artifacts.List(c.Request.Context(), policyNo, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Download streams the stored bytes with the recorded content type
func (h *ArtifactHandler) Download(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	artifact, body, err := h.artifacts.Open(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	logger.Debug(c.Request.Context(), "serving artifact", "id", artifact.ID, "policy_no", artifact.PolicyNo)
	c.DataFromReader(http.StatusOK, artifact.Size, artifact.ContentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", artifact.FileName),
	})
}
