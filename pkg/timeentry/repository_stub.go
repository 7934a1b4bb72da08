package timeentry

import (
	"context"
	"sort"
)

type RepositoryStub struct {
	nextId  int
	entries map[int]TimeEntry
	Err     error
}

func NewRepositoryStub(entries ...TimeEntry) *RepositoryStub {
	s := &RepositoryStub{entries: map[int]TimeEntry{}}
	for _, e := range entries {
		if e.Id > s.nextId {
			s.nextId = e.Id
		}
		s.entries[e.Id] = e
	}
	return s
}

func (s *RepositoryStub) List(ctx context.Context, projectId int) ([]TimeEntry, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]TimeEntry, 0)
	for _, e := range s.entries {
		if e.ProjectId == projectId {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (s *RepositoryStub) Get(ctx context.Context, projectId, id int) (TimeEntry, error) {
	if s.Err != nil {
		return TimeEntry{}, s.Err
	}
	e, ok := s.entries[id]
	if !ok || e.ProjectId != projectId {
		return TimeEntry{}, ErrTimeEntryNotFound
	}
	return e, nil
}

func (s *RepositoryStub) Create(ctx context.Context, entry TimeEntry) (TimeEntry, error) {
	if s.Err != nil {
		return TimeEntry{}, s.Err
	}
	s.nextId++
	entry.Id = s.nextId
	entry.IsLocked = false
	s.entries[entry.Id] = entry
	return entry, nil
}

func (s *RepositoryStub) Update(ctx context.Context, entry TimeEntry) (TimeEntry, error) {
	current, err := s.Get(ctx, entry.ProjectId, entry.Id)
	if err != nil {
		return TimeEntry{}, err
	}
	if current.IsLocked {
		return TimeEntry{}, ErrTimeEntryLocked
	}
	entry.IsLocked = false
	s.entries[entry.Id] = entry
	return entry, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, projectId, id int) error {
	current, err := s.Get(ctx, projectId, id)
	if err != nil {
		return err
	}
	if current.IsLocked {
		return ErrTimeEntryLocked
	}
	delete(s.entries, id)
	return nil
}

func (s *RepositoryStub) Lock(ctx context.Context, projectId, id int) (TimeEntry, error) {
	current, err := s.Get(ctx, projectId, id)
	if err != nil {
		return TimeEntry{}, err
	}
	current.IsLocked = true
	s.entries[id] = current
	return current, nil
}
