package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/burnwise/burnwise/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidProject = errors.New("invalid project")

type Service interface {
	Create(ctx context.Context, project Project) (Project, error)
	Get(ctx context.Context, id int) (Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, project Project) (Project, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) Create(ctx context.Context, project Project) (Project, error) {
	if err := validate(project); err != nil {
		return Project{}, err
	}
	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return Project{}, err
	}
	s.publish(ctx, created.Id, event_bus.ChangeCreated)
	return created, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) Update(ctx context.Context, project Project) (Project, error) {
	if err := validate(project); err != nil {
		return Project{}, err
	}
	updated, err := s.repo.Update(ctx, project)
	if err != nil {
		return Project{}, err
	}
	s.publish(ctx, updated.Id, event_bus.ChangeUpdated)
	return updated, nil
}

func (s *ServiceImpl) publish(ctx context.Context, projectId int, kind event_bus.ChangeKind) {
	err := s.eventBus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), event_bus.ProjectChangedEvent, event_bus.ProjectChanged{
		ProjectId: projectId,
		Kind:      kind,
	}))
	if err != nil {
		log.Warnf("project %d %s, but not every subscriber was notified: %v", projectId, kind, err)
	}
}

func validate(project Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProject)
	}
	if project.EstimatedHours.IsNegative() {
		return fmt.Errorf("%w: estimated hours must not be negative", ErrInvalidProject)
	}
	if project.TotalBudget.IsNegative() {
		return fmt.Errorf("%w: total budget must not be negative", ErrInvalidProject)
	}
	return nil
}
