package model

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go out as JSON numbers, the shape clients already parse
	decimal.MarshalJSONWithoutQuotes = true
}

// PolicyStatus is derived from the maturity date at response time and never stored
type PolicyStatus string

const (
	StatusActive  PolicyStatus = "ACTIVE"
	StatusMatured PolicyStatus = "MATURED"
)

// DeriveStatus reports MATURED once today has reached the maturity date.
// A policy without a maturity date is always ACTIVE.
func DeriveStatus(maturity *Date, today Date) PolicyStatus {
	if maturity == nil || maturity.After(today) {
		return StatusActive
	}
	return StatusMatured
}

// Policy is a stored policy record keyed by PolicyNo
type Policy struct {
	PolicyNo         int64
	PolicyHolder     string
	GroupCode        string
	GroupHead        string
	FUP              string
	DOB              *Date
	Address          string
	Term             string
	Mode             string
	Product          string
	CommencementDate *Date
	MaturityDate     *Date
	SumAssured       *decimal.Decimal
	Premium          *decimal.Decimal
}

// PolicyRequest carries a create body or a partial update. Nil fields are absent.
type PolicyRequest struct {
	PolicyNumber     *int64           `json:"policyNumber"`
	PersonName       *string          `json:"personName"`
	GroupCode        *string          `json:"groupCode"`
	FUP              *string          `json:"fup"`
	MaturityDate     *Date            `json:"maturityDate"`
	Premium          *decimal.Decimal `json:"premium"`
	Term             *string          `json:"term"`
	DOB              *Date            `json:"dob"`
	Address          *string          `json:"address"`
	Mode             *string          `json:"mode"`
	Product          *string          `json:"product"`
	CommencementDate *Date            `json:"commencementDate"`
	SumAssured       *decimal.Decimal `json:"sumAssured"`
	GroupHead        *string          `json:"groupHead"`
}

// PolicyResponse is the outward shape of a policy with its derived status
type PolicyResponse struct {
	PolicyNumber     int64            `json:"policyNumber"`
	PersonName       string           `json:"personName"`
	GroupCode        string           `json:"groupCode"`
	FUP              string           `json:"fup"`
	MaturityDate     *Date            `json:"maturityDate"`
	Premium          *decimal.Decimal `json:"premium"`
	Term             string           `json:"term"`
	DOB              *Date            `json:"dob"`
	Address          string           `json:"address"`
	Mode             string           `json:"mode"`
	Product          string           `json:"product"`
	CommencementDate *Date            `json:"commencementDate"`
	SumAssured       *decimal.Decimal `json:"sumAssured"`
	Status           PolicyStatus     `json:"status"`
	GroupHead        string           `json:"groupHead"`
}

// PolicyStats is the aggregate returned by the stats endpoint
type PolicyStats struct {
	Total   int64 `json:"total"`
	Matured int64 `json:"matured"`
	Active  int64 `json:"active"`
}

// NewPolicy builds a record from a create request. The group head falls back
// to the person name when the request leaves it out.
func NewPolicy(req *PolicyRequest) *Policy {
	p := &Policy{
		PolicyNo:         deref(req.PolicyNumber),
		PolicyHolder:     deref(req.PersonName),
		GroupCode:        deref(req.GroupCode),
		GroupHead:        deref(req.GroupHead),
		FUP:              deref(req.FUP),
		DOB:              copyPtr(req.DOB),
		Address:          deref(req.Address),
		Term:             deref(req.Term),
		Mode:             deref(req.Mode),
		Product:          deref(req.Product),
		CommencementDate: copyPtr(req.CommencementDate),
		MaturityDate:     copyPtr(req.MaturityDate),
		SumAssured:       copyPtr(req.SumAssured),
		Premium:          copyPtr(req.Premium),
	}
	if p.GroupHead == "" {
		p.GroupHead = p.PolicyHolder
	}
	return p
}

// Merge overwrites the fields of p that are present in req. The policy number
// is never touched.
func (p *Policy) Merge(req *PolicyRequest) {
	mergeString(&p.PolicyHolder, req.PersonName)
	mergeString(&p.GroupCode, req.GroupCode)
	mergeString(&p.GroupHead, req.GroupHead)
	mergeString(&p.FUP, req.FUP)
	mergeString(&p.Address, req.Address)
	mergeString(&p.Term, req.Term)
	mergeString(&p.Mode, req.Mode)
	mergeString(&p.Product, req.Product)
	if req.DOB != nil {
		p.DOB = copyPtr(req.DOB)
	}
	if req.CommencementDate != nil {
		p.CommencementDate = copyPtr(req.CommencementDate)
	}
	if req.MaturityDate != nil {
		p.MaturityDate = copyPtr(req.MaturityDate)
	}
	if req.SumAssured != nil {
		p.SumAssured = copyPtr(req.SumAssured)
	}
	if req.Premium != nil {
		p.Premium = copyPtr(req.Premium)
	}
}

// Clone returns a deep copy so stores never share pointers with callers
func (p *Policy) Clone() *Policy {
	c := *p
	c.DOB = copyPtr(p.DOB)
	c.CommencementDate = copyPtr(p.CommencementDate)
	c.MaturityDate = copyPtr(p.MaturityDate)
	c.SumAssured = copyPtr(p.SumAssured)
	c.Premium = copyPtr(p.Premium)
	return &c
}

// Response maps the record to its outward shape, deriving status against today.
func (p *Policy) Response(today Date) PolicyResponse {
	return PolicyResponse{
		PolicyNumber:     p.PolicyNo,
		PersonName:       p.PolicyHolder,
		GroupCode:        p.GroupCode,
		FUP:              p.FUP,
		MaturityDate:     copyPtr(p.MaturityDate),
		Premium:          copyPtr(p.Premium),
		Term:             p.Term,
		DOB:              copyPtr(p.DOB),
		Address:          p.Address,
		Mode:             p.Mode,
		Product:          p.Product,
		CommencementDate: copyPtr(p.CommencementDate),
		SumAssured:       copyPtr(p.SumAssured),
		Status:           DeriveStatus(p.MaturityDate, today),
		GroupHead:        p.GroupHead,
	}
}

// Request converts a response back into an export row
func (r PolicyResponse) Request() PolicyRequest {
	no := r.PolicyNumber
	return PolicyRequest{
		PolicyNumber:     &no,
		PersonName:       optString(r.PersonName),
		GroupCode:        optString(r.GroupCode),
		FUP:              optString(r.FUP),
		MaturityDate:     copyPtr(r.MaturityDate),
		Premium:          copyPtr(r.Premium),
		Term:             optString(r.Term),
		DOB:              copyPtr(r.DOB),
		Address:          optString(r.Address),
		Mode:             optString(r.Mode),
		Product:          optString(r.Product),
		CommencementDate: copyPtr(r.CommencementDate),
		SumAssured:       copyPtr(r.SumAssured),
		GroupHead:        optString(r.GroupHead),
	}
}

func mergeString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// StringPtr, Int64Ptr and DecimalPtr build optional request fields
func StringPtr(s string) *string { return &s }
func Int64Ptr(n int64) *int64    { return &n }

func DecimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
