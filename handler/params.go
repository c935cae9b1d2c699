package handler

import (
	"math"
	"strconv"
	"strings"

	"github.com/addy2510/policymanager/model"
	"github.com/addy2510/policymanager/service"
	"github.com/gin-gonic/gin"
)

// Default page sizes per listing
const (
	searchPageSize   = 5
	maturityPageSize = 5
	listPageSize     = 10
	artifactPageSize = 10
	maxPageSize      = 2000
)

// pageRequest reads zero-based page and size query values. Sizes above
// maxPageSize are clamped.
func pageRequest(c *gin.Context, defaultSize int) (model.PageRequest, error) {
	req := model.PageRequest{Page: 0, Size: defaultSize}
	if v := strings.TrimSpace(c.Query("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, service.ValidationFailed("Invalid page: %q", v)
		}
		req.Page = n
	}
	if v := strings.TrimSpace(c.Query("size")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, service.ValidationFailed("Invalid size: %q", v)
		}
		req.Size = min(n, maxPageSize)
	}
	if req.Page > math.MaxInt/req.Size {
		return req, service.ValidationFailed("Invalid page: %d is out of range", req.Page)
	}
	return req, nil
}

func parsePolicyNumber(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, service.ValidationFailed("Invalid policy number: %q", raw)
	}
	return n, nil
}

func parseID(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, service.ValidationFailed("Invalid id: %q", raw)
	}
	return n, nil
}

// optionalQuery distinguishes an absent query key from an empty one
func optionalQuery(c *gin.Context, key string) *string {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	return &v
}

// optionalDate parses a YYYY-MM-DD query value; blank counts as absent.
func optionalDate(c *gin.Context, key string) (*model.Date, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return nil, service.ValidationFailed("Invalid %s: %q, expected YYYY-MM-DD", key, v)
	}
	return &d, nil
}

func maturityWindow(c *gin.Context) (service.MaturityWindow, error) {
	from, err := optionalDate(c, "maturityFrom")
	if err != nil {
		return service.MaturityWindow{}, err
	}
	to, err := optionalDate(c, "maturityTo")
	if err != nil {
		return service.MaturityWindow{}, err
	}
	return service.MaturityWindow{From: from, To: to}, nil
}
