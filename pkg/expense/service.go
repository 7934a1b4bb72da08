package expense

import (
	"context"
	"errors"
	"fmt"

	"github.com/burnwise/burnwise/internal/event_bus"
	"github.com/burnwise/burnwise/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidExpense = errors.New("invalid expense")

type Service interface {
	List(ctx context.Context, projectId int) ([]Expense, error)
	Create(ctx context.Context, expense Expense) (Expense, error)
	Update(ctx context.Context, expense Expense) (Expense, error)
	Delete(ctx context.Context, projectId, id int) error
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) List(ctx context.Context, projectId int) ([]Expense, error) {
	return s.repo.List(ctx, projectId)
}

// Create records the expense with the caller as author.
func (s *ServiceImpl) Create(ctx context.Context, expense Expense) (Expense, error) {
	if expense.AuthorId == "" {
		authorId, err := user.CurrentId(ctx)
		if err != nil {
			return Expense{}, fmt.Errorf("%w: author is required: %v", ErrInvalidExpense, err)
		}
		expense.AuthorId = authorId
	}
	if expense.ReimbursementStatus == "" {
		expense.ReimbursementStatus = ReimbursementNone
	}
	if err := validate(expense); err != nil {
		return Expense{}, err
	}
	created, err := s.repo.Create(ctx, expense)
	if err != nil {
		return Expense{}, err
	}
	s.publish(ctx, created.ProjectId, created.Id, event_bus.ChangeCreated)
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, expense Expense) (Expense, error) {
	if expense.ReimbursementStatus == "" {
		expense.ReimbursementStatus = ReimbursementNone
	}
	if err := validate(expense); err != nil {
		return Expense{}, err
	}
	updated, err := s.repo.Update(ctx, expense)
	if err != nil {
		return Expense{}, err
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

func (s *ServiceImpl) publish(ctx context.Context, projectId, expenseId int, kind event_bus.ChangeKind) {
	err := s.eventBus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), event_bus.ExpenseChangedEvent, event_bus.ExpenseChanged{
		ProjectId: projectId,
		ExpenseId: expenseId,
		Kind:      kind,
	}))
	if err != nil {
		log.Warnf("expense %d %s, but not every subscriber was notified: %v", expenseId, kind, err)
	}
}

func validate(e Expense) error {
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidExpense)
	}
	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidExpense)
	}
	if _, ok := ParseReimbursementStatus(string(e.ReimbursementStatus)); !ok {
		return fmt.Errorf("%w: unknown reimbursement status %q", ErrInvalidExpense, e.ReimbursementStatus)
	}
	return nil
}
