package handler

import (
	"fmt"
	"net/http"

	"github.com/addy2510/policymanager/model"
	"github.com/addy2510/policymanager/service"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	exporter *service.Exporter
}

func NewExportHandler(exporter *service.Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// ExportOne encodes the posted policy as a Field/Value sheet
func (h *ExportHandler) ExportOne(c *gin.Context) {
	var req model.PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ValidationFailed("Invalid request body: %v", err))
		return
	}
	file, err := h.exporter.ExportOne(c.Request.Context(), &req, c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, file)
}

// ExportAll encodes the posted list of policies, one row each
func (h *ExportHandler) ExportAll(c *gin.Context) {
	var reqs []model.PolicyRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		respondError(c, service.ValidationFailed("Invalid request body: %v", err))
		return
	}
	file, err := h.exporter.ExportMany(c.Request.Context(), reqs, c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, file)
}

// ExportMaturity encodes the whole maturity window, ignoring paging
func (h *ExportHandler) ExportMaturity(c *gin.Context) {
	window, err := maturityWindow(c)
	if err != nil {
		respondError(c, err)
		return
	}
	file, err := h.exporter.ExportMaturity(c.Request.Context(), window, c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, file)
}

func sendFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
