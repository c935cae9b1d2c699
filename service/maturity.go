package service

import (
	"context"

	"github.com/addy2510/policymanager/model"
)

// WindowKind is the store query a maturity window resolves to
type WindowKind int

const (
	WindowNone WindowKind = iota
	// WindowBefore is maturity < To
	WindowBefore
	// WindowBetween is From <= maturity <= To
	WindowBetween
	// WindowAfter is maturity > From
	WindowAfter
)

func (k WindowKind) String() string {
	switch k {
	case WindowBefore:
		return "before"
	case WindowBetween:
		return "between"
	case WindowAfter:
		return "after"
	}
	return "none"
}

// MaturityWindow is an optional (from, to) pair over maturity dates. The
// between form includes both ends while before and after are strict.
type MaturityWindow struct {
	From *model.Date
	To   *model.Date
}

func (w MaturityWindow) Kind() WindowKind {
	switch {
	case w.From == nil && w.To == nil:
		return WindowNone
	case w.From == nil:
		return WindowBefore
	case w.To == nil:
		return WindowAfter
	default:
		return WindowBetween
	}
}

func (w MaturityWindow) run(ctx context.Context, store PolicyStore, req model.PageRequest) (model.Page[model.Policy], error) {
	switch w.Kind() {
	case WindowBefore:
		return store.FindMaturityBefore(ctx, *w.To, req)
	case WindowBetween:
		return store.FindMaturityBetween(ctx, *w.From, *w.To, req)
	case WindowAfter:
		return store.FindMaturityAfter(ctx, *w.From, req)
	}
	return model.EmptyPage[model.Policy](req), nil
}
