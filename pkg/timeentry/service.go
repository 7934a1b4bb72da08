package timeentry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/pkg/access"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidTimeEntry = errors.New("invalid time entry")
var ErrInvalidCriteria = errors.New("invalid report criteria")

type Service interface {
	List(ctx context.Context, projectId int) ([]TimeEntry, error)
	Create(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	Update(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	Delete(ctx context.Context, projectId, id int) error
	Lock(ctx context.Context, projectId, id int) (TimeEntry, error)
}

type ServiceImpl struct {
	repo     Repository
	checker  access.Checker
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, checker access.Checker, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, checker: checker, eventBus: eventBus}
}

func (s *ServiceImpl) List(ctx context.Context, projectId int) ([]TimeEntry, error) {
	return s.repo.List(ctx, projectId)
}

func (s *ServiceImpl) Create(ctx context.Context, entry TimeEntry) (TimeEntry, error) {
	if err := validateEntry(entry); err != nil {
		return TimeEntry{}, err
	}
	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return TimeEntry{}, err
	}
	s.publish(ctx, created.ProjectId, created.Id, event_bus.ChangeCreated)
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, entry TimeEntry) (TimeEntry, error) {
	if err := validateEntry(entry); err != nil {
		return TimeEntry{}, err
	}
	updated, err := s.repo.Update(ctx, entry)
	if err != nil {
		return TimeEntry{}, err
	}
	s.publish(ctx, updated.ProjectId, updated.Id, event_bus.ChangeUpdated)
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, projectId, id int) error {
	if err := s.repo.Delete(ctx, projectId, id); err != nil {
		return err
	}
	s.publish(ctx, projectId, id, event_bus.ChangeDeleted)
	return nil
}

// Lock freezes the entry for good. Locking an already locked entry is a no-op.
func (s *ServiceImpl) Lock(ctx context.Context, projectId, id int) (TimeEntry, error) {
	if err := access.Require(ctx, s.checker, projectId); err != nil {
		return TimeEntry{}, err
	}
	current, err := s.repo.Get(ctx, projectId, id)
	if err != nil {
		return TimeEntry{}, err
	}
	if current.IsLocked {
		return current, nil
	}
	locked, err := s.repo.Lock(ctx, projectId, id)
	if err != nil {
		return TimeEntry{}, err
	}
	s.publish(ctx, projectId, id, event_bus.ChangeLocked)
	return locked, nil
}

func (s *ServiceImpl) publish(ctx context.Context, projectId, entryId int, kind event_bus.ChangeKind) {
	err := s.eventBus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), event_bus.TimeEntryChangedEvent, event_bus.TimeEntryChanged{
		ProjectId: projectId,
		EntryId:   entryId,
		Kind:      kind,
	}))
	if err != nil {
		log.Warnf("time entry %d %s, but not every subscriber was notified: %v", entryId, kind, err)
	}
}

func validateEntry(e TimeEntry) error {
	if strings.TrimSpace(e.PersonId) == "" {
		return fmt.Errorf("%w: person is required", ErrInvalidTimeEntry)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidTimeEntry)
	}
	if e.Hours.IsNegative() || e.BillingRate.IsNegative() || e.CostRate.IsNegative() {
		return fmt.Errorf("%w: hours and rates must not be negative", ErrInvalidTimeEntry)
	}
	return nil
}
