package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/addy2510/policymanager/model"
	"github.com/addy2510/policymanager/pkg/logger"
	"github.com/shopspring/decimal"
)

// collectPageSize is the page size used when a whole window is read for export
const collectPageSize = 500

// PolicyService implements the policy operations on top of a PolicyStore
type PolicyService struct {
	store PolicyStore
	codes *CodeGenerator
	now   func() time.Time
}

// NewPolicyService wires the service. A nil generator or clock falls back to
// the random generator and time.Now.
func NewPolicyService(store PolicyStore, codes *CodeGenerator, now func() time.Time) *PolicyService {
	if codes == nil {
		codes = NewCodeGenerator()
	}
	if now == nil {
		now = time.Now
	}
	return &PolicyService{store: store, codes: codes, now: now}
}

func (s *PolicyService) today() model.Date {
	return model.DateOf(s.now())
}

func (s *PolicyService) respond(p *model.Policy) model.PolicyResponse {
	return p.Response(s.today())
}

func (s *PolicyService) respondPage(page model.Page[model.Policy]) model.Page[model.PolicyResponse] {
	today := s.today()
	return model.MapPage(page, func(p model.Policy) model.PolicyResponse {
		return p.Response(today)
	})
}

// Create stores a new policy. A missing group code is replaced by a generated
// one that no other record holds.
func (s *PolicyService) Create(ctx context.Context, req *model.PolicyRequest) (model.PolicyResponse, error) {
	if err := validateCreate(req); err != nil {
		return model.PolicyResponse{}, err
	}
	policyNo := *req.PolicyNumber
	ctx = logger.WithAttrs(ctx, "policy_no", policyNo)

	exists, err := s.store.Exists(ctx, policyNo)
	if err != nil {
		return model.PolicyResponse{}, fmt.Errorf("check policy %d: %w", policyNo, err)
	}
	if exists {
		return model.PolicyResponse{}, AlreadyExists("Policy number %d already exists", policyNo)
	}

	p := model.NewPolicy(req)
	if strings.TrimSpace(p.GroupCode) == "" {
		err = s.insertWithGeneratedCode(ctx, p)
	} else {
		err = s.store.Insert(ctx, p)
	}
	if errors.Is(err, ErrDuplicateKey) {
		return model.PolicyResponse{}, AlreadyExists("Policy number %d already exists", policyNo)
	}
	if err != nil {
		return model.PolicyResponse{}, fmt.Errorf("insert policy %d: %w", policyNo, err)
	}

	logger.Info(ctx, "policy created", "group_code", p.GroupCode)
	return s.respond(p), nil
}

// insertWithGeneratedCode resamples when the conditional insert loses a race
// for the code it was given.
func (s *PolicyService) insertWithGeneratedCode(ctx context.Context, p *model.Policy) error {
	for {
		code, err := s.codes.Generate(ctx, s.store.ExistsByGroupCode)
		if err != nil {
			return fmt.Errorf("generate group code: %w", err)
		}
		p.GroupCode = code
		err = s.store.InsertUniqueGroupCode(ctx, p)
		if !errors.Is(err, ErrGroupCodeTaken) {
			return err
		}
		logger.Debug(ctx, "group code taken during insert, resampling", "group_code", code)
	}
}

// Update merges the present fields of req into the stored policy.
func (s *PolicyService) Update(ctx context.Context, policyNo int64, req *model.PolicyRequest) (model.PolicyResponse, error) {
	if req.PolicyNumber != nil && *req.PolicyNumber != policyNo {
		return model.PolicyResponse{}, ValidationFailed("policyNumber %d does not match path %d", *req.PolicyNumber, policyNo)
	}
	if err := validateAmounts(req); err != nil {
		return model.PolicyResponse{}, err
	}

	p, err := s.get(ctx, policyNo)
	if err != nil {
		return model.PolicyResponse{}, err
	}
	p.Merge(req)
	if err := s.store.Save(ctx, p); err != nil {
		return model.PolicyResponse{}, fmt.Errorf("save policy %d: %w", policyNo, err)
	}

	logger.Info(ctx, "policy updated", "policy_no", policyNo)
	return s.respond(p), nil
}

// Get returns one policy by number
func (s *PolicyService) Get(ctx context.Context, policyNo int64) (model.PolicyResponse, error) {
	p, err := s.get(ctx, policyNo)
	if err != nil {
		return model.PolicyResponse{}, err
	}
	return s.respond(p), nil
}

func (s *PolicyService) get(ctx context.Context, policyNo int64) (*model.Policy, error) {
	p, err := s.store.Get(ctx, policyNo)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, NotFound("Policy not found: %d", policyNo)
	}
	if err != nil {
		return nil, fmt.Errorf("load policy %d: %w", policyNo, err)
	}
	return p, nil
}

// Search honors exactly one filter of q. With no filter it returns an empty
// page rather than listing everything.
func (s *PolicyService) Search(ctx context.Context, q SearchQuery, req model.PageRequest) (model.Page[model.PolicyResponse], error) {
	filter := q.Resolve()
	page, err := filter.run(ctx, s.store, req)
	if err != nil {
		return model.Page[model.PolicyResponse]{}, fmt.Errorf("search by %s: %w", filter.Mode, err)
	}
	logger.Debug(ctx, "policy search", "mode", filter.Mode.String(), "matches", page.TotalElements)
	return s.respondPage(page), nil
}

// Maturity returns the policies whose maturity date falls in w
func (s *PolicyService) Maturity(ctx context.Context, w MaturityWindow, req model.PageRequest) (model.Page[model.PolicyResponse], error) {
	page, err := w.run(ctx, s.store, req)
	if err != nil {
		return model.Page[model.PolicyResponse]{}, fmt.Errorf("maturity %s: %w", w.Kind(), err)
	}
	return s.respondPage(page), nil
}

// MaturityAll reads every page of the window, in order.
func (s *PolicyService) MaturityAll(ctx context.Context, w MaturityWindow) ([]model.PolicyResponse, error) {
	var all []model.PolicyResponse
	for n := 0; ; n++ {
		page, err := s.Maturity(ctx, w, model.PageRequest{Page: n, Size: collectPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Content...)
		if page.Last || page.Empty {
			return all, nil
		}
	}
}

// ListAll pages through every policy
func (s *PolicyService) ListAll(ctx context.Context, req model.PageRequest) (model.Page[model.PolicyResponse], error) {
	page, err := s.store.FindAll(ctx, req)
	if err != nil {
		return model.Page[model.PolicyResponse]{}, fmt.Errorf("list policies: %w", err)
	}
	return s.respondPage(page), nil
}

// Stats counts policies against today's date. Nothing is cached, so the
// split moves as days pass.
func (s *PolicyService) Stats(ctx context.Context) (model.PolicyStats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return model.PolicyStats{}, fmt.Errorf("count policies: %w", err)
	}
	matured, err := s.store.CountMaturityBefore(ctx, s.today())
	if err != nil {
		return model.PolicyStats{}, fmt.Errorf("count matured policies: %w", err)
	}
	return model.PolicyStats{Total: total, Matured: matured, Active: total - matured}, nil
}

func validateCreate(req *model.PolicyRequest) error {
	if req.PolicyNumber == nil {
		return ValidationFailed("policyNumber is required")
	}
	if *req.PolicyNumber <= 0 {
		return ValidationFailed("policyNumber must be positive, got %d", *req.PolicyNumber)
	}
	return validateAmounts(req)
}

func validateAmounts(req *model.PolicyRequest) error {
	if isNegative(req.Premium) {
		return ValidationFailed("premium must not be negative")
	}
	if isNegative(req.SumAssured) {
		return ValidationFailed("sumAssured must not be negative")
	}
	return nil
}

func isNegative(d *decimal.Decimal) bool {
	return d != nil && d.IsNegative()
}
