package expense

import (
	"context"
	"sort"
)

type RepositoryStub struct {
	nextId   int
	expenses map[int]Expense
	Err      error
}

func NewRepositoryStub(expenses ...Expense) *RepositoryStub {
	s := &RepositoryStub{expenses: map[int]Expense{}}
	for _, e := range expenses {
		if e.Id > s.nextId {
			s.nextId = e.Id
		}
		s.expenses[e.Id] = e
	}
	return s
}

func (s *RepositoryStub) List(ctx context.Context, projectId int) ([]Expense, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]Expense, 0)
	for _, e := range s.expenses {
		if e.ProjectId == projectId {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (s *RepositoryStub) Get(ctx context.Context, projectId, id int) (Expense, error) {
	if s.Err != nil {
		return Expense{}, s.Err
	}
	e, ok := s.expenses[id]
	if !ok || e.ProjectId != projectId {
		return Expense{}, ErrExpenseNotFound
	}
	return e, nil
}

func (s *RepositoryStub) Create(ctx context.Context, expense Expense) (Expense, error) {
	if s.Err != nil {
		return Expense{}, s.Err
	}
	s.nextId++
	expense.Id = s.nextId
	s.expenses[expense.Id] = expense
	return expense, nil
}

func (s *RepositoryStub) Update(ctx context.Context, expense Expense) (Expense, error) {
	current, err := s.Get(ctx, expense.ProjectId, expense.Id)
	if err != nil {
		return Expense{}, err
	}
	expense.AuthorId = current.AuthorId
	s.expenses[expense.Id] = expense
	return expense, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, projectId, id int) error {
	if _, err := s.Get(ctx, projectId, id); err != nil {
		return err
	}
	delete(s.expenses, id)
	return nil
}
