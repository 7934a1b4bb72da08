package amendment

import (
	"context"
	"sort"
	"time"
)

type RepositoryStub struct {
	nextId     int
	amendments map[int]ContractAmendment
	Err        error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{amendments: map[int]ContractAmendment{}}
}

func (s *RepositoryStub) Create(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error) {
	if s.Err != nil {
		return ContractAmendment{}, s.Err
	}
	s.nextId++
	amendment.Id = s.nextId
	s.amendments[amendment.Id] = amendment
	return amendment, nil
}

func (s *RepositoryStub) Get(ctx context.Context, projectId, id int) (ContractAmendment, error) {
	if s.Err != nil {
		return ContractAmendment{}, s.Err
	}
	a, ok := s.amendments[id]
	if !ok || a.ProjectId != projectId {
		return ContractAmendment{}, ErrAmendmentNotFound
	}
	return a, nil
}

func (s *RepositoryStub) List(ctx context.Context, projectId int) ([]ContractAmendment, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]ContractAmendment, 0)
	for _, a := range s.amendments {
		if a.ProjectId == projectId {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (s *RepositoryStub) Update(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error) {
	current, err := s.Get(ctx, amendment.ProjectId, amendment.Id)
	if err != nil {
		return ContractAmendment{}, err
	}
	if !current.IsEditable() {
		return ContractAmendment{}, ErrAmendmentNotEditable
	}
	current.Title = amendment.Title
	current.Type = amendment.Type
	current.Value = amendment.Value
	current.EffectiveDate = amendment.EffectiveDate
	s.amendments[current.Id] = current
	return current, nil
}

func (s *RepositoryStub) SetStatus(ctx context.Context, projectId, id int, status Status) (ContractAmendment, error) {
	current, err := s.Get(ctx, projectId, id)
	if err != nil {
		return ContractAmendment{}, err
	}
	if !current.IsEditable() {
		return ContractAmendment{}, ErrAmendmentNotEditable
	}
	current.Status = status
	s.amendments[id] = current
	return current, nil
}

func (s *RepositoryStub) Approve(ctx context.Context, projectId, id int, approvedBy string, approvedAt time.Time) (ContractAmendment, error) {
	current, err := s.Get(ctx, projectId, id)
	if err != nil {
		return ContractAmendment{}, err
	}
	if !current.IsEditable() {
		return ContractAmendment{}, ErrAmendmentNotEditable
	}
	current.Status = StatusApproved
	current.ApprovedBy = approvedBy
	current.ApprovedAt = &approvedAt
	s.amendments[id] = current
	return current, nil
}
