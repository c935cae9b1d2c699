package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/addy2510/policymanager/model"
)

// Field names a searchable policy column
type Field int

const (
	FieldPolicyNo Field = iota
	FieldHolder
	FieldGroupCode
)

func (f Field) String() string {
	switch f {
	case FieldPolicyNo:
		return "policy_no"
	case FieldHolder:
		return "policy_holder"
	case FieldGroupCode:
		return "group_code"
	}
	return "unknown"
}

// Store level failures. Services translate them into domain errors.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate policy number")
	ErrGroupCodeTaken = errors.New("group code already in use")
)

// PolicyStore is the keyed record store for policies. Pages are ordered by
// insertion. Text matching is case-insensitive.
type PolicyStore interface {
	Exists(ctx context.Context, policyNo int64) (bool, error)
	// Get returns ErrRecordNotFound when the key is absent
	Get(ctx context.Context, policyNo int64) (*model.Policy, error)
	// Insert adds p only if its key is free, else ErrDuplicateKey.
	Insert(ctx context.Context, p *model.Policy) error
	// InsertUniqueGroupCode is Insert that also fails with ErrGroupCodeTaken
	// when another record holds p.GroupCode. Check and write are atomic.
	InsertUniqueGroupCode(ctx context.Context, p *model.Policy) error
	// Save upserts p
	Save(ctx context.Context, p *model.Policy) error
	Count(ctx context.Context) (int64, error)
	FindAll(ctx context.Context, req model.PageRequest) (model.Page[model.Policy], error)
	FindByPrefix(ctx context.Context, field Field, prefix string, req model.PageRequest) (model.Page[model.Policy], error)
	FindByContains(ctx context.Context, field Field, text string, req model.PageRequest) (model.Page[model.Policy], error)
	// FindMaturityBefore matches maturity < d
	FindMaturityBefore(ctx context.Context, d model.Date, req model.PageRequest) (model.Page[model.Policy], error)
	// FindMaturityBetween matches from <= maturity <= to
	FindMaturityBetween(ctx context.Context, from, to model.Date, req model.PageRequest) (model.Page[model.Policy], error)
	// FindMaturityAfter matches maturity > d
	FindMaturityAfter(ctx context.Context, d model.Date, req model.PageRequest) (model.Page[model.Policy], error)
	CountMaturityBefore(ctx context.Context, d model.Date) (int64, error)
	ExistsByGroupCode(ctx context.Context, code string) (bool, error)
}

// ArtifactStore keeps artifact metadata; ids are assigned on Create.
type ArtifactStore interface {
	Create(ctx context.Context, a *model.Artifact) error
	// Get returns ErrRecordNotFound when the id is absent
	Get(ctx context.Context, id int64) (*model.Artifact, error)
	FindByPolicy(ctx context.Context, policyNo int64, req model.PageRequest) (model.Page[model.Artifact], error)
}

var (
	_ PolicyStore   = (*MemoryPolicyStore)(nil)
	_ ArtifactStore = (*MemoryArtifactStore)(nil)
)

// MemoryPolicyStore is an in-memory PolicyStore
type MemoryPolicyStore struct {
	mu       sync.RWMutex
	policies map[int64]*model.Policy
	order    []int64
}

func NewMemoryPolicyStore() *MemoryPolicyStore {
	slog.Info("policy store initialized", "driver", "memory")
	return &MemoryPolicyStore{policies: make(map[int64]*model.Policy)}
}

func (s *MemoryPolicyStore) Exists(_ context.Context, policyNo int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.policies[policyNo]
	return ok, nil
}

func (s *MemoryPolicyStore) Get(_ context.Context, policyNo int64) (*model.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyNo]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryPolicyStore) Insert(_ context.Context, p *model.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(p)
}

func (s *MemoryPolicyStore) InsertUniqueGroupCode(_ context.Context, p *model.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groupCodeUsedLocked(p.GroupCode) {
		return ErrGroupCodeTaken
	}
	return s.insertLocked(p)
}

// insertLocked must be called with the write lock held
func (s *MemoryPolicyStore) insertLocked(p *model.Policy) error {
	if _, ok := s.policies[p.PolicyNo]; ok {
		return ErrDuplicateKey
	}
	s.policies[p.PolicyNo] = p.Clone()
	s.order = append(s.order, p.PolicyNo)
	return nil
}

func (s *MemoryPolicyStore) Save(_ context.Context, p *model.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[p.PolicyNo]; !ok {
		s.order = append(s.order, p.PolicyNo)
	}
	s.policies[p.PolicyNo] = p.Clone()
	return nil
}

func (s *MemoryPolicyStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.policies)), nil
}

func (s *MemoryPolicyStore) FindAll(_ context.Context, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.filter(func(*model.Policy) bool { return true }, req), nil
}

func (s *MemoryPolicyStore) FindByPrefix(_ context.Context, field Field, prefix string, req model.PageRequest) (model.Page[model.Policy], error) {
	prefix = strings.ToLower(prefix)
	return s.filter(func(p *model.Policy) bool {
		return strings.HasPrefix(strings.ToLower(fieldValue(p, field)), prefix)
	}, req), nil
}

func (s *MemoryPolicyStore) FindByContains(_ context.Context, field Field, text string, req model.PageRequest) (model.Page[model.Policy], error) {
	text = strings.ToLower(text)
	return s.filter(func(p *model.Policy) bool {
		return strings.Contains(strings.ToLower(fieldValue(p, field)), text)
	}, req), nil
}

func (s *MemoryPolicyStore) FindMaturityBefore(_ context.Context, d model.Date, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.filter(maturityBefore(d), req), nil
}

func (s *MemoryPolicyStore) FindMaturityBetween(_ context.Context, from, to model.Date, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.filter(func(p *model.Policy) bool {
		m := p.MaturityDate
		return m != nil && !m.Before(from) && !m.After(to)
	}, req), nil
}

func (s *MemoryPolicyStore) FindMaturityAfter(_ context.Context, d model.Date, req model.PageRequest) (model.Page[model.Policy], error) {
	return s.filter(func(p *model.Policy) bool {
		return p.MaturityDate != nil && p.MaturityDate.After(d)
	}, req), nil
}

func (s *MemoryPolicyStore) CountMaturityBefore(_ context.Context, d model.Date) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match := maturityBefore(d)
	var n int64
	for _, p := range s.policies {
		if match(p) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryPolicyStore) ExistsByGroupCode(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupCodeUsedLocked(code), nil
}

func (s *MemoryPolicyStore) groupCodeUsedLocked(code string) bool {
	for _, p := range s.policies {
		if p.GroupCode == code {
			return true
		}
	}
	return false
}

func (s *MemoryPolicyStore) filter(match func(*model.Policy) bool, req model.PageRequest) model.Page[model.Policy] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []model.Policy
	for _, no := range s.order {
		if p := s.policies[no]; match(p) {
			matched = append(matched, *p.Clone())
		}
	}
	return model.PageSlice(matched, req)
}

func maturityBefore(d model.Date) func(*model.Policy) bool {
	return func(p *model.Policy) bool {
		return p.MaturityDate != nil && p.MaturityDate.Before(d)
	}
}

func fieldValue(p *model.Policy, f Field) string {
	switch f {
	case FieldPolicyNo:
		return strconv.FormatInt(p.PolicyNo, 10)
	case FieldHolder:
		return p.PolicyHolder
	case FieldGroupCode:
		return p.GroupCode
	}
	return ""
}

// MemoryArtifactStore is an in-memory ArtifactStore
type MemoryArtifactStore struct {
	mu        sync.RWMutex
	artifacts []*model.Artifact
	nextID    int64
}

func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{nextID: 1}
}

func (s *MemoryArtifactStore) Create(_ context.Context, a *model.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID
	s.nextID++
	stored := *a
	s.artifacts = append(s.artifacts, &stored)
	return nil
}

func (s *MemoryArtifactStore) Get(_ context.Context, id int64) (*model.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.artifacts {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *MemoryArtifactStore) FindByPolicy(_ context.Context, policyNo int64, req model.PageRequest) (model.Page[model.Artifact], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []model.Artifact
	for _, a := range s.artifacts {
		if a.PolicyNo == policyNo {
			matched = append(matched, *a)
		}
	}
	return model.PageSlice(matched, req), nil
}
