package amendment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/internal/utils"
	"github.com/burnwise/burnwise/pkg/access"
	"github.com/burnwise/burnwise/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidAmendment = errors.New("invalid amendment")

type Service interface {
	List(ctx context.Context, projectId int) ([]ContractAmendment, error)
	Create(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error)
	Update(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error)
	Submit(ctx context.Context, projectId, id int) (ContractAmendment, error)
	Approve(ctx context.Context, projectId, id int) (ContractAmendment, error)
	Reject(ctx context.Context, projectId, id int) (ContractAmendment, error)
}

type ServiceImpl struct {
	repo     Repository
	checker  access.Checker
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewService(repo Repository, checker access.Checker, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, checker: checker, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) List(ctx context.Context, projectId int) ([]ContractAmendment, error) {
	return s.repo.List(ctx, projectId)
}

func (s *ServiceImpl) Create(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error) {
	if err := validate(amendment); err != nil {
		return ContractAmendment{}, err
	}
	amendment.Reference = uuid.New()
	amendment.Status = StatusDraft
	amendment.ApprovedAt = nil
	amendment.ApprovedBy = ""

	created, err := s.repo.Create(ctx, amendment)
	if err != nil {
		return ContractAmendment{}, err
	}
	s.publish(ctx, created, event_bus.ChangeCreated)
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, amendment ContractAmendment) (ContractAmendment, error) {
	if err := validate(amendment); err != nil {
		return ContractAmendment{}, err
	}
	updated, err := s.repo.Update(ctx, amendment)
	if err != nil {
		return ContractAmendment{}, err
	}
	s.publish(ctx, updated, event_bus.ChangeUpdated)
	return updated, nil
}

// Submit moves a draft amendment to pending approval.
func (s *ServiceImpl) Submit(ctx context.Context, projectId, id int) (ContractAmendment, error) {
	current, err := s.repo.Get(ctx, projectId, id)
	if err != nil {
		return ContractAmendment{}, err
	}
	if current.Status != StatusDraft {
		return ContractAmendment{}, fmt.Errorf("%w: only drafts can be submitted, amendment is %s", ErrAmendmentNotEditable, current.Status)
	}
	submitted, err := s.repo.SetStatus(ctx, projectId, id, StatusPending)
	if err != nil {
		return ContractAmendment{}, err
	}
	s.publish(ctx, submitted, event_bus.ChangeUpdated)
	return submitted, nil
}

func (s *ServiceImpl) Approve(ctx context.Context, projectId, id int) (ContractAmendment, error) {
	if err := access.Require(ctx, s.checker, projectId); err != nil {
		return ContractAmendment{}, err
	}
	approvedBy, err := user.CurrentId(ctx)
	if err != nil && !errors.Is(err, user.ErrNoUser) {
		return ContractAmendment{}, err
	}

	approved, err := s.repo.Approve(ctx, projectId, id, approvedBy, s.clock.Now())
	if err != nil {
		return ContractAmendment{}, err
	}
	log.Infof("amendment %s of project %d approved by %q", approved.Reference, projectId, approvedBy)
	s.publish(ctx, approved, event_bus.ChangeApproved)
	return approved, nil
}

func (s *ServiceImpl) Reject(ctx context.Context, projectId, id int) (ContractAmendment, error) {
	if err := access.Require(ctx, s.checker, projectId); err != nil {
		return ContractAmendment{}, err
	}
	rejected, err := s.repo.SetStatus(ctx, projectId, id, StatusRejected)
	if err != nil {
		return ContractAmendment{}, err
	}
	s.publish(ctx, rejected, event_bus.ChangeRejected)
	return rejected, nil
}

func (s *ServiceImpl) publish(ctx context.Context, a ContractAmendment, kind event_bus.ChangeKind) {
	err := s.eventBus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), event_bus.AmendmentChangedEvent, event_bus.AmendmentChanged{
		ProjectId:   a.ProjectId,
		AmendmentId: a.Id,
		Kind:        kind,
	}))
	if err != nil {
		log.Warnf("amendment %d %s, but not every subscriber was notified: %v", a.Id, kind, err)
	}
}

// validate checks user-supplied fields. Change orders may carry a negative
// value (descoping), the initial SOW may not.
func validate(a ContractAmendment) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidAmendment)
	}
	if _, ok := ParseType(string(a.Type)); !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAmendment, a.Type)
	}
	if a.Type == TypeInitial && a.Value.IsNegative() {
		return fmt.Errorf("%w: initial contract value must not be negative", ErrInvalidAmendment)
	}
	return nil
}
