package project

import (
	"context"
	"sort"
)

type RepositoryStub struct {
	nextId   int
	projects map[int]Project
	Err      error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{projects: map[int]Project{}}
}

func (s *RepositoryStub) Create(ctx context.Context, project Project) (Project, error) {
	if s.Err != nil {
		return Project{}, s.Err
	}
	s.nextId++
	project.Id = s.nextId
	s.projects[project.Id] = project
	return project, nil
}

func (s *RepositoryStub) Get(ctx context.Context, id int) (Project, error) {
	if s.Err != nil {
		return Project{}, s.Err
	}
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (s *RepositoryStub) List(ctx context.Context) ([]Project, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	projects := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Id < projects[j].Id })
	return projects, nil
}

func (s *RepositoryStub) Update(ctx context.Context, project Project) (Project, error) {
	if s.Err != nil {
		return Project{}, s.Err
	}
	if _, ok := s.projects[project.Id]; !ok {
		return Project{}, ErrProjectNotFound
	}
	s.projects[project.Id] = project
	return project, nil
}
