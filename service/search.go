package service

import (
	"context"
	"strings"

	"github.com/addy2510/policymanager/model"
)

// SearchMode is the one filter a search honors
type SearchMode int

const (
	SearchNone SearchMode = iota
	SearchByPolicyNo
	SearchByPersonName
	SearchByGroupCode
	SearchByText
)

func (m SearchMode) String() string {
	switch m {
	case SearchByPolicyNo:
		return "policy_no"
	case SearchByPersonName:
		return "person_name"
	case SearchByGroupCode:
		return "group_code"
	case SearchByText:
		return "text"
	}
	return "none"
}

// SearchQuery holds the raw optional filters of a search request
type SearchQuery struct {
	PolicyNumber *string
	PersonName   *string
	GroupCode    *string
	// Text is a free-text holder name match tried after the three filters
	Text *string
}

// SearchFilter is the resolved choice: a mode and the value it matches.
type SearchFilter struct {
	Mode  SearchMode
	Value string
}

// Resolve picks the filter by precedence: policy number, person name, group
// code, then free text. The first present filter wins.
func (q SearchQuery) Resolve() SearchFilter {
	candidates := []struct {
		mode  SearchMode
		value *string
	}{
		{SearchByPolicyNo, q.PolicyNumber},
		{SearchByPersonName, q.PersonName},
		{SearchByGroupCode, q.GroupCode},
		{SearchByText, q.Text},
	}
	for _, c := range candidates {
		if c.value == nil {
			continue
		}
		if v := strings.TrimSpace(*c.value); v != "" {
			return SearchFilter{Mode: c.mode, Value: v}
		}
	}
	return SearchFilter{Mode: SearchNone}
}

// run issues the store query for the filter
func (f SearchFilter) run(ctx context.Context, store PolicyStore, req model.PageRequest) (model.Page[model.Policy], error) {
	switch f.Mode {
	case SearchByPolicyNo:
		return store.FindByPrefix(ctx, FieldPolicyNo, f.Value, req)
	case SearchByPersonName:
		return store.FindByPrefix(ctx, FieldHolder, f.Value, req)
	case SearchByGroupCode:
		return store.FindByPrefix(ctx, FieldGroupCode, f.Value, req)
	case SearchByText:
		return store.FindByContains(ctx, FieldHolder, f.Value, req)
	}
	return model.EmptyPage[model.Policy](req), nil
}
