package handler

import (
	"net/http"

	"github.com/addy2510/policymanager/model"
	"github.com/addy2510/policymanager/service"
	"github.com/gin-gonic/gin"
)

type PolicyHandler struct {
	policies *service.PolicyService
}

func NewPolicyHandler(policies *service.PolicyService) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// Create handles POST /policy
func (h *PolicyHandler) Create(c *gin.Context) {
	var req model.PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ValidationFailed("Invalid request body: %v", err))
		return
	}

	resp, err := h.policies.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update merges the body into the policy named by the path
func (h *PolicyHandler) Update(c *gin.Context) {
	policyNo, err := parsePolicyNumber(c.Param("policyNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	var req model.PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ValidationFailed("Invalid request body: %v", err))
		return
	}

	resp, err := h.policies.Update(c.Request.Context(), policyNo, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PolicyHandler) Get(c *gin.Context) {
	policyNo, err := parsePolicyNumber(c.Param("policyNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.policies.Get(c.Request.Context(), policyNo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Search honors one of policyNumber, personName, groupCode or q
func (h *PolicyHandler) Search(c *gin.Context) {
	req, err := pageRequest(c, searchPageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	q := service.SearchQuery{
		PolicyNumber: optionalQuery(c, "policyNumber"),
		PersonName:   optionalQuery(c, "personName"),
		GroupCode:    optionalQuery(c, "groupCode"),
		Text:         optionalQuery(c, "q"),
	}

	page, err := h.policies.Search(c.Request.Context(), q, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PolicyHandler) Maturity(c *gin.Context) {
	req, err := pageRequest(c, maturityPageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	window, err := maturityWindow(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.policies.Maturity(c.Request.Context(), window, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PolicyHandler) ListAll(c *gin.Context) {
	req, err := pageRequest(c, listPageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.policies.ListAll(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PolicyHandler) Stats(c *gin.Context) {
	stats, err := h.policies.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
