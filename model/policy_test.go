package model

import (
	"testing"
)

func TestDeriveStatus(t *testing.T) {
	today := MustParseDate("2024-06-15")

	tests := []struct {
		name     string
		maturity *Date
		expected PolicyStatus
	}{
		{"no maturity date", nil, StatusActive},
		{"matures today", DatePtr(MustParseDate("2024-06-15")), StatusMatured},
		{"matures tomorrow", DatePtr(MustParseDate("2024-06-16")), StatusActive},
		{"matured last year", DatePtr(MustParseDate("2023-06-15")), StatusMatured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.maturity, today); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestNewPolicyDefaultsGroupHead(t *testing.T) {
	p := NewPolicy(&PolicyRequest{
		PolicyNumber: Int64Ptr(1001),
		PersonName:   StringPtr("Asha Rao"),
	})
	if p.GroupHead != "Asha Rao" {
		t.Errorf("Expected group head to default to person name, got '%s'", p.GroupHead)
	}

	p = NewPolicy(&PolicyRequest{
		PolicyNumber: Int64Ptr(1002),
		PersonName:   StringPtr("Asha Rao"),
		GroupHead:    StringPtr("Vikram Rao"),
	})
	if p.GroupHead != "Vikram Rao" {
		t.Errorf("Expected explicit group head, got '%s'", p.GroupHead)
	}
}

func TestPolicyMergeOnlyPremium(t *testing.T) {
	original := &Policy{
		PolicyNo:     42,
		PolicyHolder: "Meera",
		GroupCode:    "123456",
		GroupHead:    "Meera",
		FUP:          "03/2024",
		Address:      "12 Lake Road",
		Term:         "20",
		Mode:         "Y",
		Product:      "Endowment",
		MaturityDate: DatePtr(MustParseDate("2030-01-01")),
		SumAssured:   DecimalPtr("500000.00"),
		Premium:      DecimalPtr("2500.00"),
	}
	p := original.Clone()
	p.Merge(&PolicyRequest{Premium: DecimalPtr("3100.50")})

	if !p.Premium.Equal(*DecimalPtr("3100.50")) {
		t.Errorf("Expected premium 3100.50, got %s", p.Premium)
	}
	p.Premium = original.Premium
	if p.PolicyHolder != original.PolicyHolder || p.GroupCode != original.GroupCode ||
		p.FUP != original.FUP || p.Address != original.Address || p.Term != original.Term ||
		p.Mode != original.Mode || p.Product != original.Product || p.GroupHead != original.GroupHead {
		t.Errorf("Expected string fields untouched, got %+v", p)
	}
	if p.MaturityDate.Compare(*original.MaturityDate) != 0 {
		t.Errorf("Expected maturity date untouched, got %s", p.MaturityDate)
	}
	if !p.SumAssured.Equal(*original.SumAssured) {
		t.Errorf("Expected sum assured untouched, got %s", p.SumAssured)
	}
}

func TestPolicyMergeIgnoresPolicyNumber(t *testing.T) {
	p := &Policy{PolicyNo: 7}
	p.Merge(&PolicyRequest{PolicyNumber: Int64Ptr(8), PersonName: StringPtr("Ravi")})
	if p.PolicyNo != 7 {
		t.Errorf("Expected policy number 7, got %d", p.PolicyNo)
	}
	if p.PolicyHolder != "Ravi" {
		t.Errorf("Expected holder 'Ravi', got '%s'", p.PolicyHolder)
	}
}

func TestCloneDoesNotShareDates(t *testing.T) {
	p := &Policy{MaturityDate: DatePtr(MustParseDate("2030-01-01"))}
	c := p.Clone()
	c.MaturityDate.Year = 2040
	if p.MaturityDate.Year != 2030 {
		t.Errorf("Expected original maturity year 2030, got %d", p.MaturityDate.Year)
	}
}

func TestResponseRoundTripsToRequest(t *testing.T) {
	p := &Policy{PolicyNo: 9, PolicyHolder: "Kiran", Premium: DecimalPtr("10.5")}
	resp := p.Response(MustParseDate("2024-01-01"))
	if resp.Status != StatusActive {
		t.Errorf("Expected ACTIVE, got %s", resp.Status)
	}

	req := resp.Request()
	if *req.PolicyNumber != 9 || *req.PersonName != "Kiran" {
		t.Errorf("Unexpected request %+v", req)
	}
	if req.GroupCode != nil {
		t.Errorf("Expected empty group code to map to nil, got '%s'", *req.GroupCode)
	}
}
